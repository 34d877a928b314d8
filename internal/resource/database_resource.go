package resource

import (
	"fmt"
	"sync"
	"time"

	"gorm.io/driver/mysql"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"

	"transcription-service/ddd/infrastructure/database/po"
	"transcription-service/pkg/assert"
	"transcription-service/pkg/config"
	"transcription-service/pkg/logger"
	"transcription-service/pkg/manager"
)

var (
	databaseResourceOnce      sync.Once
	singletonDatabaseResource *DatabaseResource
)

// DatabaseResource 数据库资源，driver 为 memory 时不建立连接
type DatabaseResource struct {
	mainDB *gorm.DB
}

// DefaultDatabaseResource 获取数据库资源单例
func DefaultDatabaseResource() *DatabaseResource {
	assert.NotCircular()
	databaseResourceOnce.Do(func() {
		singletonDatabaseResource = &DatabaseResource{}
	})
	assert.NotNil(singletonDatabaseResource)
	return singletonDatabaseResource
}

// Dialector 根据驱动名选择 gorm 方言
func Dialector(cfg config.DatabaseConfig) (gorm.Dialector, error) {
	switch cfg.Driver {
	case "postgres":
		return postgres.Open(cfg.GetDSN()), nil
	case "mysql":
		return mysql.Open(cfg.GetDSN()), nil
	default:
		return nil, fmt.Errorf("unsupported database driver %q", cfg.Driver)
	}
}

// MustOpen 建立连接、设置连接池并按需迁移表结构
func (r *DatabaseResource) MustOpen() {
	if r.mainDB != nil {
		return
	}
	cfg := config.GetGlobalConfig()
	if cfg == nil {
		panic("global config not initialized before DatabaseResource")
	}
	dbCfg := cfg.Database
	if dbCfg.Driver == "memory" {
		logger.Info("Database driver is memory, skip connecting", nil)
		return
	}

	dialector, err := Dialector(dbCfg)
	if err != nil {
		panic(err.Error())
	}
	db, err := gorm.Open(dialector, &gorm.Config{
		Logger:  gormlogger.Default.LogMode(gormlogger.Warn),
		NowFunc: func() time.Time { return time.Now().UTC() },
	})
	if err != nil {
		panic(fmt.Sprintf("failed to connect database: %v", err))
	}

	sqlDB, err := db.DB()
	if err != nil {
		panic(fmt.Sprintf("failed to get sql.DB: %v", err))
	}
	if dbCfg.MaxIdleConns > 0 {
		sqlDB.SetMaxIdleConns(dbCfg.MaxIdleConns)
	}
	if dbCfg.MaxOpenConns > 0 {
		sqlDB.SetMaxOpenConns(dbCfg.MaxOpenConns)
	}
	if dbCfg.ConnMaxLifetime > 0 {
		sqlDB.SetConnMaxLifetime(dbCfg.ConnMaxLifetime)
	}

	if dbCfg.AutoMigrate {
		if err := db.AutoMigrate(&po.VideoPO{}); err != nil {
			panic(fmt.Sprintf("failed to migrate database: %v", err))
		}
	}

	r.mainDB = db
	logger.Info("Database resource initialized", map[string]interface{}{
		"driver":   dbCfg.Driver,
		"host":     dbCfg.Host,
		"database": dbCfg.Database,
	})
}

// MainDB 获取主库连接，memory 模式下为 nil
func (r *DatabaseResource) MainDB() *gorm.DB {
	return r.mainDB
}

// Close 关闭连接池
func (r *DatabaseResource) Close() {
	if r.mainDB == nil {
		return
	}
	if sqlDB, err := r.mainDB.DB(); err == nil {
		_ = sqlDB.Close()
	}
}

// DatabaseResourcePlugin 数据库资源插件
type DatabaseResourcePlugin struct{}

func (p *DatabaseResourcePlugin) Name() string {
	return "databaseResource"
}

func (p *DatabaseResourcePlugin) MustCreateResource() manager.Resource {
	return DefaultDatabaseResource()
}
