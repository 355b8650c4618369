package debug

import (
	"github.com/sirupsen/logrus"
	"github.com/urfave/cli/v2"
)

type Config struct {
	Debug bool
}

func (c *Config) MustSetupDebug() {
	if c.Debug {
		logrus.SetLevel(logrus.DebugLevel)
		logrus.Debugf("loglevel set to [%v]", logrus.DebugLevel)
	}
}

func Flags(config *Config) []cli.Flag {
	return []cli.Flag{
		&cli.BoolFlag{
			Name:        "debug",
			Usage:       "Turn on debug logging",
			EnvVars:     []string{"GREENER_DEBUG"},
			Destination: &config.Debug,
		},
	}
}
