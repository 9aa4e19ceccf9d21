package config

import (
	"fmt"
)

type DB struct {
	Host     string
	Port     int
	User     string
	Password string
	Dbname   string
	Sslmode  string
}

type API struct {
	// Route is the URL router where the API will be served
	Route string
	// ListenPort port where the API server will listen on
	ListenPort int
	// ListenHost host where the API server will listen on
	ListenHost string
	// AdminToken is the bearer token for commissioner api calls
	AdminToken string
	// Ssl tls related config options
	Ssl struct {
		Domain  string
		DirCert string
	}
}

type Error struct {
	// Critical indicates if the error encountered is critical and the app must be stopped
	Critical bool
	// Message error message
	Message string
}

// MetricsCfg initializes the metrics config
type MetricsCfg struct {
	Enabled         bool
	RefreshInterval int
}

type Migrate struct {
	// Action defines the migration action to be taken (up, down, status)
	Action string
}

type Eboto struct {
	// API api config options
	API *API
	// Database connection options
	DB *DB
	// LogLevel logging level
	LogLevel string
	// LogOutput logging output
	LogOutput string
	// LogErrorFile for logging warning, error and fatal messages
	LogErrorFile string
	// Metrics config options
	Metrics *MetricsCfg
	// DataDir path where the config and tls files are stored
	DataDir string
	// SaveConfig overwrites the config file with the CLI provided flags
	SaveConfig bool
	// Migration options
	Migrate *Migrate
}

func (e *Eboto) String() string {
	return fmt.Sprintf("API: %+v, DB: %+v, LogLevel: %s, LogOutput: %s, LogErrorFile: %s, Metrics: %+v, DataDir: %s, SaveConfig: %v, Migrate: %+v",
		*e.API, *e.DB, e.LogLevel, e.LogOutput, e.LogErrorFile, *e.Metrics, e.DataDir, e.SaveConfig, *e.Migrate)
}

// NewEbotoConfig initializes the fields in the config struct
func NewEbotoConfig() *Eboto {
	return &Eboto{
		API:     new(API),
		DB:      new(DB),
		Migrate: new(Migrate),
		Metrics: new(MetricsCfg),
	}
}
