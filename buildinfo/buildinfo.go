// Package buildinfo exposes the application's embedded identity and build
// details.
package buildinfo

import (
	_ "embed"
	"fmt"
	"os"
	"time"

	"github.com/rs/zerolog/log"
	"gopkg.in/yaml.v3"
)

// AppInfo provides static data about the running application
type AppInfo struct {
	buildInfo `yaml:",inline"`

	ExePath string `yaml:"-"`

	Name            string `yaml:"name"`
	URL             string `yaml:"url"`
	ReverseDNS      string `yaml:"reverse_dns"`
	Vendor          string `yaml:"vendor"`
	Description     string `yaml:"description"`
	FullDescription string `yaml:"full_description"`
}

type buildInfo struct {
	Version    string    `yaml:"version"`
	CommitHash string    `yaml:"commit_hash"`
	BuildTime  time.Time `yaml:"build_time"`
}

var App AppInfo
var All string

// build.yml is rewritten by release builds

//go:embed app.yml
var app []byte

//go:embed build.yml
var build []byte

func init() {
	err := load(app, build)
	if err != nil {
		log.Fatal().Err(err).Msg("unable to load embedded build info")
	}

	App.ExePath, err = os.Executable()
	if err != nil {
		log.Warn().Err(err).Msg("unable to determine executable pathname")
	}
}

func load(appData, buildData []byte) error {
	err := yaml.Unmarshal(appData, &App)
	if err != nil {
		return fmt.Errorf("unable to parse app info: %w", err)
	}

	err = yaml.Unmarshal(buildData, &App.buildInfo)
	if err != nil {
		return fmt.Errorf("unable to parse build info: %w", err)
	}

	buildTime := App.BuildTime.Format(time.RFC3339)
	All = fmt.Sprintf("%s (%s at %s)", App.Version, App.CommitHash, buildTime)
	return nil
}
