package database

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/glebarez/sqlite"
	"github.com/issuetracker/tracker/internal/model"
	"gorm.io/driver/mysql"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

func InitDB(dbType, dsn string) (*gorm.DB, error) {
	var dialector gorm.Dialector

	switch dbType {
	case "mysql":
		dialector = mysql.Open(dsn)
	case "sqlite", "":
		// 使用 github.com/glebarez/sqlite 驱动
		if err := ensureDir(dsn); err != nil {
			return nil, err
		}
		dialector = sqlite.Open(dsn)
	default:
		return nil, fmt.Errorf("不支持的数据库类型: %s", dbType)
	}

	db, err := gorm.Open(dialector, GormConfig())
	if err != nil {
		return nil, err
	}

	if err := db.AutoMigrate(&model.Issue{}); err != nil {
		return nil, err
	}
	if err := backfillTitleKeys(db); err != nil {
		return nil, fmt.Errorf("补齐 title_key 失败: %w", err)
	}
	return db, nil
}

// GormConfig 时间戳统一使用 UTC，避免 updated_at 混入服务器本地时区
func GormConfig() *gorm.Config {
	return &gorm.Config{
		Logger: logger.Default.LogMode(logger.Warn),
		NowFunc: func() time.Time {
			return time.Now().UTC()
		},
	}
}

// backfillTitleKeys 为旧版本写入的记录补齐搜索键
func backfillTitleKeys(db *gorm.DB) error {
	var issues []model.Issue
	if err := db.Where("title_key IS NULL OR title_key = ''").Find(&issues).Error; err != nil {
		return err
	}
	for _, issue := range issues {
		if err := db.Model(&model.Issue{}).Where("id = ?", issue.ID).
			UpdateColumn("title_key", model.SearchKey(issue.Title)).Error; err != nil {
			return err
		}
	}
	return nil
}

// ensureDir sqlite 文件所在目录不存在时先创建
func ensureDir(dsn string) error {
	if dsn == "" || dsn == ":memory:" || filepath.Base(dsn) == dsn {
		return nil
	}
	if len(dsn) > 5 && dsn[:5] == "file:" {
		return nil
	}
	return os.MkdirAll(filepath.Dir(dsn), 0o755)
}
