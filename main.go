package main

import (
	"transcription-service/app"
	"transcription-service/pkg/observability"
)

func main() {
	observability.StartProfiling("transcription-service")
	defer observability.StopProfiling()
	app.Run()
}
