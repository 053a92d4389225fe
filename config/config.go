package config

import (
	"os"
	"path/filepath"

	"github.com/pkg/errors"
	"gopkg.in/yaml.v3"
)

type SystemConfig struct {
	Appid    string `yaml:"appid" json:"appid"`
	Location string `yaml:"location" json:"location"`
	Workdir  string `yaml:"workdir" json:"workdir"`
	Debug    bool   `yaml:"debug" json:"debug"`
}

type WebConfig struct {
	Host      string `yaml:"host" json:"host"`
	Port      int    `yaml:"port" json:"port"`
	Secret    string `yaml:"secret" json:"secret"`
	JwtExpire int    `yaml:"jwt_expire" json:"jwt_expire"` // hours
}

type DBConfig struct {
	Type     string `yaml:"type" json:"type"`
	Host     string `yaml:"host" json:"host"`
	Port     int    `yaml:"port" json:"port"`
	Name     string `yaml:"name" json:"name"`
	User     string `yaml:"user" json:"user"`
	Passwd   string `yaml:"passwd" json:"passwd"`
	MaxConn  int    `yaml:"max_conn" json:"max_conn"`
	IdleConn int    `yaml:"idle_conn" json:"idle_conn"`
	Debug    bool   `yaml:"debug" json:"debug"`
}

type LogConfig struct {
	Mode       string `yaml:"mode" json:"mode"`
	FileEnable bool   `yaml:"file_enable" json:"file_enable"`
	Filename   string `yaml:"filename" json:"filename"`
}

type AppConfig struct {
	System   SystemConfig `yaml:"system" json:"system"`
	Web      WebConfig    `yaml:"web" json:"web"`
	Database DBConfig     `yaml:"database" json:"database"`
	Logger   LogConfig    `yaml:"logger" json:"logger"`
}

var DefaultAppConfig = &AppConfig{
	System: SystemConfig{
		Appid:    "Evercart",
		Location: "Asia/Shanghai",
		Workdir:  "/var/evercart",
		Debug:    true,
	},
	Web: WebConfig{
		Host:      "0.0.0.0",
		Port:      1816,
		Secret:    "9b6de5cc-0731-4bf1-xxxx-0f568ac9da37",
		JwtExpire: 24,
	},
	Database: DBConfig{
		Type:     "postgres",
		Host:     "127.0.0.1",
		Port:     5432,
		Name:     "evercart",
		User:     "postgres",
		Passwd:   "myroot",
		MaxConn:  100,
		IdleConn: 10,
	},
	Logger: LogConfig{
		Mode:       "development",
		FileEnable: true,
		Filename:   "/var/evercart/evercart.log",
	},
}

func LoadConfig(cfile string) *AppConfig {
	// config priority: cli > env > default
	if cfile == "" {
		cfile = "evercart.yml"
	}
	if envfile := os.Getenv("EVERCART_CONFIG_FILE"); envfile != "" {
		cfile = envfile
	}

	cfg := new(AppConfig)
	*cfg = *DefaultAppConfig
	if data, err := os.ReadFile(cfile); err == nil {
		if err := yaml.Unmarshal(data, cfg); err != nil {
			panic(errors.Wrap(err, "invalid config file"))
		}
	}

	setEnvValue("EVERCART_SYSTEM_WORKDIR", &cfg.System.Workdir)
	setEnvValue("EVERCART_WEB_SECRET", &cfg.Web.Secret)
	setEnvValue("EVERCART_DB_HOST", &cfg.Database.Host)
	setEnvValue("EVERCART_DB_NAME", &cfg.Database.Name)
	setEnvValue("EVERCART_DB_USER", &cfg.Database.User)
	setEnvValue("EVERCART_DB_PWD", &cfg.Database.Passwd)

	_ = os.MkdirAll(cfg.System.Workdir, 0755)
	_ = os.MkdirAll(filepath.Join(cfg.System.Workdir, "data"), 0755)
	return cfg
}

func setEnvValue(name string, val *string) {
	if evalue := os.Getenv(name); evalue != "" {
		*val = evalue
	}
}
