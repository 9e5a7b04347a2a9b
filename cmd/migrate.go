package cmd

import (
	"errors"
	"fmt"
	"os"

	"github.com/golang-migrate/migrate/v4"
	"github.com/golang-migrate/migrate/v4/database"
	migratemysql "github.com/golang-migrate/migrate/v4/database/mysql"
	migratesqlite "github.com/golang-migrate/migrate/v4/database/sqlite"
	"github.com/golang-migrate/migrate/v4/source/iofs"
	"github.com/spf13/cobra"

	"mes.GO/config"
	"mes.GO/migrations"
)

var migrateDown bool

var migrateCmd = &cobra.Command{
	Use:   "migrate",
	Short: "Apply schema migrations for the configured database",
	Run: func(cmd *cobra.Command, args []string) {
		db, err := config.NewDB()
		if err != nil {
			fmt.Printf("Database connection failed: %v\n", err)
			os.Exit(1)
		}
		sqlDB, err := db.DB()
		if err != nil {
			fmt.Printf("Database handle: %v\n", err)
			os.Exit(1)
		}

		dialect := "mysql"
		if os.Getenv("DB_DRIVER") == "sqlite" {
			dialect = "sqlite"
		}

		src, err := iofs.New(migrations.FS, dialect)
		if err != nil {
			fmt.Printf("Migration source: %v\n", err)
			os.Exit(1)
		}

		var driver database.Driver
		if dialect == "sqlite" {
			driver, err = migratesqlite.WithInstance(sqlDB, &migratesqlite.Config{})
		} else {
			driver, err = migratemysql.WithInstance(sqlDB, &migratemysql.Config{})
		}
		if err != nil {
			fmt.Printf("Migration driver: %v\n", err)
			os.Exit(1)
		}

		m, err := migrate.NewWithInstance("iofs", src, dialect, driver)
		if err != nil {
			fmt.Printf("Migrate init: %v\n", err)
			os.Exit(1)
		}

		if migrateDown {
			err = m.Down()
		} else {
			err = m.Up()
		}
		if errors.Is(err, migrate.ErrNoChange) {
			fmt.Println("Schema is up to date.")
			return
		}
		if err != nil {
			fmt.Printf("Migration failed: %v\n", err)
			os.Exit(1)
		}
		fmt.Println("Migrations applied.")
	},
}

func init() {
	migrateCmd.Flags().BoolVar(&migrateDown, "down", false, "Roll back all migrations")
	rootCmd.AddCommand(migrateCmd)
}
