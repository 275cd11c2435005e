package core

import (
	"log"
	"net"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

const (
	EnvDev  = "DEV"
	EnvTest = "TEST"
	EnvQA   = "QA"
	EnvProd = "PROD"
)

const (
	defaultBillingSpec = "0 0 1 * *" // midnight on the 1st
	// every quarter hour, plus :59 so the last run of a day still reaches sessions ending up to 23:54
	defaultAttendanceSpec = "0,15,30,45,59 * * * *"
)

type (
	Config struct {
		Debug            bool
		TestMode         bool
		Env              string
		Build            string
		AppName          string
		WorkDir          string
		Timezone         *time.Location
		AuthSecret       string
		CronSecret       string
		RollbarToken     string
		SendgridApiKey   string
		DefaultFromEmail string
		FrontendBaseURL  string

		Server     serverConfig
		Database   databaseConfig
		Storage    storageConfig
		Billing    billingConfig
		Attendance attendanceConfig
		Scheduler  schedulerConfig
		Log        logConfig
	}

	serverConfig struct {
		Host            string
		DebugHost       string
		ShutdownTimeout time.Duration
		UploadRateLimit float64
		BodyLimit       string
	}

	databaseConfig struct {
		Engine        string
		User          string
		Password      string
		AdminUser     string
		AdminPassword string
		Host          string
		Port          string
		Name          string
		DisableTLS    bool
	}

	storageConfig struct {
		Backend       string // local | s3
		LocalDir      string
		PublicBaseURL string
		Endpoint      string
		AccessKey     string
		SecretKey     string
		Bucket        string
		Region        string
		UseSSL        bool
	}

	billingConfig struct {
		DueDay int
		Notify bool
	}

	attendanceConfig struct {
		GraceMinutes int
	}

	// cron specs (5 fields) evaluated in Timezone
	schedulerConfig struct {
		Enabled        bool
		BillingSpec    string
		AttendanceSpec string
	}

	logConfig struct {
		Level string
	}
)

func (c databaseConfig) Address() string {
	return net.JoinHostPort(c.Host, c.Port)
}

// IsProduction reports whether cron endpoints must be gated by the shared secret.
func (c *Config) IsProduction() bool {
	return c.Env == EnvProd
}

func NewConfig() *Config {
	conf := viper.New()

	// defaults
	conf.SetTypeByDefaultValue(true)
	conf.SetDefault("debug", true)
	conf.SetDefault("build", "develop")
	conf.SetDefault("appName", "Edura")
	conf.SetDefault("timezone", "Asia/Ho_Chi_Minh")
	conf.SetDefault("authSecret", "kq3-edura)dev$+91=secret&uoxh2(h!x)#*c2(#yg4h")
	conf.SetDefault("cronSecret", "")
	conf.SetDefault("rollbarToken", "")
	conf.SetDefault("sendgridApiKey", "")
	conf.SetDefault("defaultFromEmail", "noreply@localhost")
	conf.SetDefault("frontendBaseURL", "http://localhost:3000")

	conf.SetDefault("serverHost", ":8000")
	conf.SetDefault("serverDebugHost", ":4000")
	conf.SetDefault("serverShutdownTimeout", 5*time.Second)
	conf.SetDefault("serverUploadRateLimit", 5.0)
	conf.SetDefault("serverBodyLimit", "60M")

	conf.SetDefault("databaseEngine", "postgres")
	conf.SetDefault("databaseUser", "edura")
	conf.SetDefault("databasePassword", "edura")
	conf.SetDefault("databaseAdminUser", "postgres")
	conf.SetDefault("databaseAdminPassword", "postgres")
	conf.SetDefault("databaseHost", "localhost")
	conf.SetDefault("databasePort", "5432")
	conf.SetDefault("databaseName", "edura")
	conf.SetDefault("databaseDisableTLS", true)

	conf.SetDefault("storageBackend", "local")
	conf.SetDefault("storageLocalDir", "uploads")
	conf.SetDefault("storagePublicBaseURL", "http://localhost:8000/uploads")
	conf.SetDefault("storageEndpoint", "localhost:9000")
	conf.SetDefault("storageAccessKey", "")
	conf.SetDefault("storageSecretKey", "")
	conf.SetDefault("storageBucket", "edura")
	conf.SetDefault("storageRegion", "us-east-1")
	conf.SetDefault("storageUseSSL", false)

	conf.SetDefault("billingDueDay", 15)
	conf.SetDefault("billingNotify", false)
	conf.SetDefault("attendanceGraceMinutes", 5)
	conf.SetDefault("schedulerEnabled", false)
	conf.SetDefault("schedulerBillingSpec", defaultBillingSpec)
	conf.SetDefault("schedulerAttendanceSpec", defaultAttendanceSpec)
	conf.SetDefault("logLevel", "info")

	env := strings.ToUpper(os.Getenv("ENV")) // DEV (local; default), TEST, QA, PROD
	switch env {
	case "":
		env = EnvDev
	case EnvTest:
		conf.SetDefault("testMode", true)
	case EnvProd:
		conf.SetDefault("debug", false)
	}
	conf.SetEnvPrefix(env)

	// load .env if it exists (ignore if it does not)
	wd := Getwd()
	dotEnvPath := filepath.Join(wd, "config", ".env."+strings.ToLower(env))
	if _, err := os.Stat(dotEnvPath); err == nil {
		if err := godotenv.Load(dotEnvPath); err != nil {
			log.Fatalf("config.godotenv(%s): %v", dotEnvPath, err)
		}
	} else if !os.IsNotExist(err) {
		log.Fatalf("config.os.Stat(%s): %v", dotEnvPath, err)
	}
	conf.AutomaticEnv()
	// secrets shared with the scheduler & auth service keep their platform names
	_ = conf.BindEnv("cronSecret", env+"_CRONSECRET", "CRON_SECRET")
	_ = conf.BindEnv("authSecret", env+"_AUTHSECRET", "AUTH_SECRET")

	tz, err := time.LoadLocation(conf.GetString("timezone"))
	if err != nil {
		log.Fatalf("config.LoadLocation(%s): %v", conf.GetString("timezone"), err)
	}

	c := &Config{
		Debug:            conf.GetBool("debug"),
		TestMode:         conf.GetBool("testMode"),
		Env:              env,
		Build:            conf.GetString("build"),
		AppName:          conf.GetString("appName"),
		WorkDir:          wd,
		Timezone:         tz,
		AuthSecret:       conf.GetString("authSecret"),
		CronSecret:       conf.GetString("cronSecret"),
		RollbarToken:     conf.GetString("rollbarToken"),
		SendgridApiKey:   conf.GetString("sendgridApiKey"),
		DefaultFromEmail: conf.GetString("defaultFromEmail"),
		FrontendBaseURL:  conf.GetString("frontendBaseURL"),
		Server: serverConfig{
			Host:            conf.GetString("serverHost"),
			DebugHost:       conf.GetString("serverDebugHost"),
			ShutdownTimeout: conf.GetDuration("serverShutdownTimeout"),
			UploadRateLimit: conf.GetFloat64("serverUploadRateLimit"),
			BodyLimit:       conf.GetString("serverBodyLimit"),
		},
		Database: databaseConfig{
			Engine:        conf.GetString("databaseEngine"),
			User:          conf.GetString("databaseUser"),
			Password:      conf.GetString("databasePassword"),
			AdminUser:     conf.GetString("databaseAdminUser"),
			AdminPassword: conf.GetString("databaseAdminPassword"),
			Host:          conf.GetString("databaseHost"),
			Port:          conf.GetString("databasePort"),
			Name:          conf.GetString("databaseName"),
			DisableTLS:    conf.GetBool("databaseDisableTLS"),
		},
		Storage: storageConfig{
			Backend:       conf.GetString("storageBackend"),
			LocalDir:      conf.GetString("storageLocalDir"),
			PublicBaseURL: conf.GetString("storagePublicBaseURL"),
			Endpoint:      conf.GetString("storageEndpoint"),
			AccessKey:     conf.GetString("storageAccessKey"),
			SecretKey:     conf.GetString("storageSecretKey"),
			Bucket:        conf.GetString("storageBucket"),
			Region:        conf.GetString("storageRegion"),
			UseSSL:        conf.GetBool("storageUseSSL"),
		},
		Billing: billingConfig{
			DueDay: conf.GetInt("billingDueDay"),
			Notify: conf.GetBool("billingNotify"),
		},
		Attendance: attendanceConfig{
			GraceMinutes: conf.GetInt("attendanceGraceMinutes"),
		},
		Scheduler: schedulerConfig{
			Enabled:        conf.GetBool("schedulerEnabled"),
			BillingSpec:    conf.GetString("schedulerBillingSpec"),
			AttendanceSpec: conf.GetString("schedulerAttendanceSpec"),
		},
		Log: logConfig{
			Level: conf.GetString("logLevel"),
		},
	}
	if c.IsProduction() && c.CronSecret == "" {
		log.Fatal("config: CRON_SECRET is required in PROD")
	}
	if c.Billing.DueDay < 1 || c.Billing.DueDay > 28 {
		log.Fatalf("config: billing due day must be within 1..28 (got %d)", c.Billing.DueDay)
	}
	return c
}

// NewTestConfig returns a Config suitable for tests; it never reads the environment.
func NewTestConfig() *Config {
	tz, err := time.LoadLocation("Asia/Ho_Chi_Minh")
	if err != nil {
		tz = time.FixedZone("ICT", 7*60*60)
	}
	return &Config{
		TestMode:         true,
		Env:              EnvTest,
		Build:            "test",
		AppName:          "Edura",
		Timezone:         tz,
		AuthSecret:       "test-secret",
		CronSecret:       "cron-secret",
		DefaultFromEmail: "noreply@edura.test",
		FrontendBaseURL:  "http://localhost:3000",
		Server: serverConfig{
			Host:            ":0",
			ShutdownTimeout: time.Second,
			UploadRateLimit: 1000,
			BodyLimit:       "60M",
		},
		Storage:    storageConfig{Backend: "local", PublicBaseURL: "http://localhost:8000/uploads"},
		Billing:    billingConfig{DueDay: 15},
		Attendance: attendanceConfig{GraceMinutes: 5},
		Scheduler:  schedulerConfig{BillingSpec: defaultBillingSpec, AttendanceSpec: defaultAttendanceSpec},
		Log:        logConfig{Level: "disabled"},
	}
}
