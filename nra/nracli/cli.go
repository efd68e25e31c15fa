// Package nracli wires the rollup pipeline into its command line interface.
package nracli

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/pkg/errors"
	log "github.com/sirupsen/logrus"
	"github.com/urfave/cli"

	"github.com/perinatalhealth/nra-app/nra/constants"
	"github.com/perinatalhealth/nra-app/nra/database"
	"github.com/perinatalhealth/nra-app/nra/export"
	"github.com/perinatalhealth/nra-app/nra/models/postgres"
	"github.com/perinatalhealth/nra-app/nra/monitoring"
	"github.com/perinatalhealth/nra-app/nra/reference"
	"github.com/perinatalhealth/nra-app/nra/service"
	"github.com/perinatalhealth/nra-app/nra/utils"
)

// App Name and usage.  Edit them here to prevent breaking tests
const Name = "nra"
const Usage = "Newborn Rollup Analytics CLI"

func GetApp() *cli.App {
	return setUpApp()
}

func setUpApp() *cli.App {
	app := cli.NewApp()
	app.Name = Name
	app.Usage = Usage
	app.Version = constants.Version
	var exportFile string
	app.Commands = []cli.Command{
		{
			Name:  "run-rollup",
			Usage: "Run the newborn rollup pipeline and persist the output",
			Flags: []cli.Flag{
				cli.StringFlag{
					Name:        "export-file",
					Usage:       "Also write the rollup to this CSV file",
					Destination: &exportFile,
				},
			},
			Action: func(c *cli.Context) error {
				result, err := runPipeline(exportFile, true)
				if err != nil {
					return err
				}
				fmt.Fprintf(app.Writer, "Run %s completed: %d newborn rows (%d NICU)\n",
					result.RunID, len(result.Export), result.NicuNewborns)
				return nil
			},
		},
		{
			Name:  "calc-window",
			Usage: "Derive and print the birth and runout windows",
			Action: func(c *cli.Context) error {
				window, err := calcWindow()
				if err != nil {
					return err
				}
				fmt.Fprintf(app.Writer, "Birth window: %s to %s (mid %s), runout through %s\n",
					window.Start.Format("2006-01-02"), window.End.Format("2006-01-02"),
					window.Mid.Format("2006-01-02"), window.RunoutEnd.Format("2006-01-02"))
				return nil
			},
		},
		{
			Name:  "export-csv",
			Usage: "Run the pipeline without committing database output and write the rollup to a CSV file",
			Flags: []cli.Flag{
				cli.StringFlag{
					Name:        "file",
					Usage:       "Path of the CSV file to write",
					Destination: &exportFile,
				},
			},
			Action: func(c *cli.Context) error {
				if exportFile == "" {
					return errors.New("CSV file path (--file) must be provided")
				}
				result, err := runPipeline(exportFile, false)
				if err != nil {
					return err
				}
				fmt.Fprintf(app.Writer, "Exported %d newborn rows to %s\n", len(result.Export), exportFile)
				return nil
			},
		},
	}
	return app
}

// runPipeline executes the rollup inside one database transaction. When
// commit is false the transaction rolls back, leaving the warehouse
// untouched while the CSV export still reflects a full run.
func runPipeline(exportFile string, commit bool) (*service.Result, error) {
	cfg, err := service.LoadConfig()
	if err != nil {
		return nil, err
	}

	db, err := database.Connect()
	if err != nil {
		return nil, err
	}
	defer db.Close()

	timer := monitoring.GetTimer()
	defer timer.Close()
	ctx := monitoring.NewContext(context.Background(), timer)
	ctx, close := monitoring.NewParent(ctx, "run-rollup")
	defer close()

	tx, err := db.BeginTx(ctx, &sql.TxOptions{})
	if err != nil {
		return nil, errors.Wrap(err, "failed to open transaction")
	}
	defer func() {
		if err := tx.Rollback(); err != nil && err != sql.ErrTxDone {
			log.Warnf("Failed to roll back transaction. %s", err.Error())
		}
	}()

	repo := postgres.NewRepositoryTx(tx)
	svc := service.NewService(repo, reference.NewManager(repo), cfg)

	result, err := svc.RunRollup(ctx)
	if err != nil {
		return nil, err
	}

	if commit {
		if err := tx.Commit(); err != nil {
			return nil, errors.Wrap(err, "failed to commit rollup output")
		}
	}

	if exportFile != "" {
		if err := export.WriteCSV(result.Export, exportFile); err != nil {
			return nil, err
		}
	}
	return result, nil
}

func calcWindow() (window utils.BirthWindow, err error) {
	cfg, err := service.LoadConfig()
	if err != nil {
		return window, err
	}

	db, err := database.Connect()
	if err != nil {
		return window, err
	}
	defer db.Close()

	repo := postgres.NewRepository(db)
	svc := service.NewService(repo, reference.NewManager(repo), cfg)
	return svc.CalculateWindow(context.Background())
}
