package dao

import (
	"context"
	"fmt"
	"strings"
	"time"

	"gorm.io/datatypes"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"transcription-service/ddd/domain/query"
	"transcription-service/ddd/domain/vo"
	"transcription-service/ddd/infrastructure/database/po"
)

// VideoDAO videos 表的访问对象
type VideoDAO struct {
	db *gorm.DB
}

// NewVideoDAO 创建视频 DAO
func NewVideoDAO(db *gorm.DB) *VideoDAO {
	return &VideoDAO{db: db}
}

// Create 插入一条记录，ID 由数据库生成
func (d *VideoDAO) Create(ctx context.Context, video *po.VideoPO) error {
	return d.db.WithContext(ctx).Create(video).Error
}

// FindByID 根据ID查询，不存在返回 gorm.ErrRecordNotFound
func (d *VideoDAO) FindByID(ctx context.Context, id int64) (*po.VideoPO, error) {
	var video po.VideoPO
	if err := d.db.WithContext(ctx).Where("id = ?", id).First(&video).Error; err != nil {
		return nil, err
	}
	return &video, nil
}

// UpdateLocked 在事务中以 SELECT ... FOR UPDATE 读取记录，
// 交给 mutate 修改后整行写回，mutate 返回错误时回滚
func (d *VideoDAO) UpdateLocked(ctx context.Context, id int64, mutate func(*po.VideoPO) (*po.VideoPO, error)) (*po.VideoPO, error) {
	var out *po.VideoPO
	err := d.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var row po.VideoPO
		if err := lockedFind(tx, id).First(&row).Error; err != nil {
			return err
		}
		next, err := mutate(&row)
		if err != nil {
			return err
		}
		next.ID = id
		if err := tx.Model(next).
			Select("*").
			Omit(po.ColumnID, po.ColumnUploadTime, "storage_url").
			Updates(next).Error; err != nil {
			return err
		}
		out = next
		return nil
	})
	if err != nil {
		return nil, err
	}
	return out, nil
}

// Query 先计数再分页，两者使用同一组过滤条件
func (d *VideoDAO) Query(ctx context.Context, q query.VideoQuery) ([]*po.VideoPO, int64, error) {
	var total int64
	if err := countQuery(d.db.WithContext(ctx), q).Count(&total).Error; err != nil {
		return nil, 0, err
	}
	rows := make([]*po.VideoPO, 0, q.Limit())
	if offset := q.Offset(); offset < 0 || total <= int64(offset) {
		return rows, total, nil
	}
	if err := pageQuery(d.db.WithContext(ctx), q).Find(&rows).Error; err != nil {
		return nil, 0, err
	}
	return rows, total, nil
}

// FindStaleProcessing 查询开始时间早于 before 的转写中记录
func (d *VideoDAO) FindStaleProcessing(ctx context.Context, before time.Time, limit int) ([]*po.VideoPO, error) {
	var rows []*po.VideoPO
	q := d.db.WithContext(ctx).
		Where("status = ? AND processing_started_at < ?", vo.VideoStatusProcessing.String(), before).
		Order("processing_started_at ASC")
	if limit > 0 {
		q = q.Limit(limit)
	}
	if err := q.Find(&rows).Error; err != nil {
		return nil, err
	}
	return rows, nil
}

// AutoMigrate 建表及索引
func (d *VideoDAO) AutoMigrate() error {
	return d.db.AutoMigrate(&po.VideoPO{})
}

func lockedFind(db *gorm.DB, id int64) *gorm.DB {
	return db.Clauses(clause.Locking{Strength: "UPDATE"}).Where("id = ?", id)
}

func countQuery(db *gorm.DB, q query.VideoQuery) *gorm.DB {
	return db.Model(&po.VideoPO{}).Scopes(filterScope(q))
}

func pageQuery(db *gorm.DB, q query.VideoQuery) *gorm.DB {
	return db.Model(&po.VideoPO{}).
		Scopes(filterScope(q), orderScope(q)).
		Offset(q.Offset()).
		Limit(q.Limit())
}

// filterScope 把查询条件翻译为 WHERE 子句，值一律走占位符
func filterScope(q query.VideoQuery) func(*gorm.DB) *gorm.DB {
	return func(db *gorm.DB) *gorm.DB {
		// 未知状态的记录不参与查询
		db = db.Where("status IN ?", knownStatuses())
		if q.Status != nil {
			db = db.Where("status = ?", q.Status.String())
		}
		if q.Search != "" {
			db = db.Where("LOWER(filename) LIKE ?", "%"+escapeLike(strings.ToLower(q.Search))+"%")
		}
		dialect := db.Dialector.Name()
		if q.HasDurationFilter() {
			expr := jsonNumber(dialect, po.ColumnMediaMetadata, "duration", false)
			db = db.Where(datatypes.JSONQuery(po.ColumnMediaMetadata).HasKey("duration"))
			if q.MinDuration != nil {
				db = db.Where(expr+" >= ?", *q.MinDuration)
			}
			if q.MaxDuration != nil {
				db = db.Where(expr+" <= ?", *q.MaxDuration)
			}
		}
		if q.HasFileSizeFilter() {
			expr := jsonNumber(dialect, po.ColumnMediaMetadata, "file_size", true)
			db = db.Where(datatypes.JSONQuery(po.ColumnMediaMetadata).HasKey("file_size"))
			if q.MinFileSize != nil {
				db = db.Where(expr+" >= ?", *q.MinFileSize)
			}
			if q.MaxFileSize != nil {
				db = db.Where(expr+" <= ?", *q.MaxFileSize)
			}
		}
		if q.StartDate != nil {
			db = db.Where("upload_time >= ?", *q.StartDate)
		}
		if q.EndDate != nil {
			db = db.Where("upload_time <= ?", *q.EndDate)
		}
		return db
	}
}

// orderScope 空值排最后，再按 id 同向排序保证分页稳定
func orderScope(q query.VideoQuery) func(*gorm.DB) *gorm.DB {
	return func(db *gorm.DB) *gorm.DB {
		col, ok := q.OrderBy.Column()
		if !ok {
			col = po.ColumnUploadTime
		}
		desc := q.Descending()
		return db.
			Order(col + " IS NULL").
			Order(clause.OrderByColumn{Column: clause.Column{Name: col}, Desc: desc}).
			Order(clause.OrderByColumn{Column: clause.Column{Name: po.ColumnID}, Desc: desc})
	}
}

// numericText 与 strconv.ParseFloat 接受的十进制写法一致，不含 ? 以免被当作占位符
const numericText = `^[-+]{0,1}([0-9]+([.][0-9]*){0,1}|[.][0-9]+)([eE][-+]{0,1}[0-9]+){0,1}$`

// jsonNumber 取出 JSON 字段中的数值，数字字符串同样转换，其余为 NULL。
// integral 为 true 时截断小数，与整数字段的读取方式一致。
// column 与 key 只能是代码中的常量。
func jsonNumber(dialect, column, key string, integral bool) string {
	switch dialect {
	case "mysql":
		path := fmt.Sprintf("JSON_EXTRACT(%s, '$.%s')", column, key)
		text := fmt.Sprintf("TRIM(JSON_UNQUOTE(%s))", path)
		expr := fmt.Sprintf("(CASE WHEN JSON_TYPE(%s) IN ('INTEGER','UNSIGNED INTEGER','DOUBLE','DECIMAL') THEN CAST(%s AS DECIMAL(30,6)) "+
			"WHEN JSON_TYPE(%s) = 'STRING' AND %s REGEXP '%s' THEN CAST(%s AS DECIMAL(30,6)) END)",
			path, path, path, text, numericText, text)
		if integral {
			return "TRUNCATE(" + expr + ", 0)"
		}
		return expr
	default:
		field := fmt.Sprintf("%s::jsonb -> '%s'", column, key)
		text := fmt.Sprintf("btrim(%s::jsonb ->> '%s')", column, key)
		expr := fmt.Sprintf("(CASE jsonb_typeof(%s) WHEN 'number' THEN (%s::jsonb ->> '%s')::double precision "+
			"WHEN 'string' THEN (CASE WHEN %s ~ '%s' THEN %s::double precision END) END)",
			field, column, key, text, numericText, text)
		if integral {
			return "trunc(" + expr + ")"
		}
		return expr
	}
}

func knownStatuses() []string {
	all := vo.AllVideoStatuses()
	out := make([]string, 0, len(all))
	for _, s := range all {
		out = append(out, s.String())
	}
	return out
}

var likeEscaper = strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`)

func escapeLike(s string) string {
	return likeEscaper.Replace(s)
}
