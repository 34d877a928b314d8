package main

import (
	"flag"
	"fmt"
	"os"
	"time"

	"transcription-service/app"
)

// 一次性回收停留在 processing 的视频，适合由 cron 调度
func main() {
	timeout := flag.Duration("timeout", time.Minute, "overall timeout")
	flag.Parse()

	n, err := app.ReapOnce(*timeout)
	if err != nil {
		fmt.Fprintf(os.Stderr, "reap failed: %v\n", err)
		os.Exit(1)
	}
	fmt.Printf("reaped %d stale videos\n", n)
}
