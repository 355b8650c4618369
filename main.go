package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/pkg/errors"
	"github.com/sirupsen/logrus"
	"github.com/urfave/cli/v2"

	"github.com/greener-project/greener/pkg/auth"
	"github.com/greener-project/greener/pkg/db"
	"github.com/greener-project/greener/pkg/debug"
	"github.com/greener-project/greener/pkg/model"
	servercli "github.com/greener-project/greener/pkg/server/cli"
	"github.com/greener-project/greener/pkg/stores"
	"github.com/greener-project/greener/pkg/version"
)

var (
	config      servercli.Config
	debugconfig debug.Config

	username string
	password string
)

func main() {
	app := cli.NewApp()
	app.Name = "greener"
	app.Version = version.FriendlyVersion()
	app.Usage = "test result ingestion and query service"
	app.Flags = append(
		servercli.Flags(&config),
		debug.Flags(&debugconfig)...)
	app.Action = run
	app.Commands = []*cli.Command{
		{
			Name:  "create-user",
			Usage: "Create a user account",
			Flags: []cli.Flag{
				&cli.StringFlag{
					Name:        "username",
					Required:    true,
					Destination: &username,
				},
				&cli.StringFlag{
					Name:        "password",
					Required:    true,
					Destination: &password,
				},
			},
			Action: createUser,
		},
	}

	if err := app.Run(os.Args); err != nil {
		logrus.Fatal(err)
	}
}

func run(_ *cli.Context) error {
	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	debugconfig.MustSetupDebug()
	s, err := config.ToServer(ctx)
	if err != nil {
		return err
	}
	return s.ListenAndServe(ctx)
}

func createUser(c *cli.Context) error {
	ctx := c.Context
	debugconfig.MustSetupDebug()

	if config.DatabaseURL == "" {
		return errors.New("database-url is required")
	}

	bdb, err := db.Open(ctx, config.DatabaseURL)
	if err != nil {
		return err
	}
	defer bdb.Close()
	if err := db.Bootstrap(ctx, bdb); err != nil {
		return err
	}

	salt, err := auth.NewSalt()
	if err != nil {
		return err
	}
	user := &model.User{
		Username:     username,
		PasswordSalt: salt,
		PasswordHash: auth.HashSecret(password, salt),
	}
	err = stores.NewUserStore(bdb).Create(ctx, user)
	if errors.Is(err, stores.ErrDuplicate) {
		return errors.Errorf("user %s already exists", username)
	}
	if err != nil {
		return err
	}

	logrus.Infof("created user %s (%s)", username, user.ID)
	return nil
}
