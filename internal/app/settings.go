package app

import (
	"sync"
	"time"

	"github.com/mitchellh/mapstructure"
	"github.com/spf13/cast"
	"go.uber.org/zap"
	"gorm.io/gorm"

	"github.com/evercart/evercart/internal/domain"
)

const settingsCacheTTL = 30 * time.Second

// SettingsManager reads sys_config rows through a short-lived cache and
// casts values on demand.
type SettingsManager struct {
	db       *gorm.DB
	mu       sync.RWMutex
	cache    map[string]string
	loadedAt time.Time
}

func NewSettingsManager(db *gorm.DB) *SettingsManager {
	return &SettingsManager{db: db, cache: map[string]string{}}
}

func (m *SettingsManager) reloadLocked() {
	var rows []domain.SysConfig
	if err := m.db.Find(&rows).Error; err != nil {
		zap.L().Error("failed to load settings", zap.Error(err))
		return
	}
	cache := make(map[string]string, len(rows))
	for _, row := range rows {
		cache[row.Type+"."+row.Name] = row.Value
	}
	m.cache = cache
	m.loadedAt = time.Now()
}

func (m *SettingsManager) get(category, name string) string {
	m.mu.RLock()
	fresh := time.Since(m.loadedAt) < settingsCacheTTL
	val, ok := m.cache[category+"."+name]
	m.mu.RUnlock()
	if fresh && ok {
		return val
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	if time.Since(m.loadedAt) >= settingsCacheTTL {
		m.reloadLocked()
	}
	return m.cache[category+"."+name]
}

// Invalidate forces a reload on next read; call after settings writes.
func (m *SettingsManager) Invalidate() {
	m.mu.Lock()
	m.loadedAt = time.Time{}
	m.mu.Unlock()
}

func (m *SettingsManager) GetString(category, name string) string {
	return m.get(category, name)
}

func (m *SettingsManager) GetInt64(category, name string) int64 {
	return cast.ToInt64(m.get(category, name))
}

func (m *SettingsManager) GetBool(category, name string) bool {
	return cast.ToBool(m.get(category, name))
}

// SmtpSettings is the decoded smtp.* category block.
type SmtpSettings struct {
	Enabled  bool   `mapstructure:"enabled"`
	Host     string `mapstructure:"host"`
	Port     int    `mapstructure:"port"`
	Username string `mapstructure:"username"`
	Password string `mapstructure:"password"`
	From     string `mapstructure:"from"`
}

// Smtp decodes the smtp category into a typed struct.
func (m *SettingsManager) Smtp() (SmtpSettings, error) {
	raw := map[string]interface{}{
		"enabled":  m.GetBool("smtp", "enabled"),
		"host":     m.GetString("smtp", "host"),
		"port":     m.GetInt64("smtp", "port"),
		"username": m.GetString("smtp", "username"),
		"password": m.GetString("smtp", "password"),
		"from":     m.GetString("smtp", "from"),
	}
	var out SmtpSettings
	if err := mapstructure.Decode(raw, &out); err != nil {
		return SmtpSettings{}, err
	}
	return out, nil
}
