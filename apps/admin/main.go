package main

import (
	"log"
	"os"

	"github.com/Nicko-rgb/server-notas/core"
	"github.com/Nicko-rgb/server-notas/storage/database"
	sqlxrepos "github.com/Nicko-rgb/server-notas/storage/database/sqlx"
)

var logger *log.Logger

func main() {
	defer os.Exit(0)

	logger = log.New(os.Stdout, "ADMIN : ", log.LstdFlags|log.Lmicroseconds|log.Lshortfile)

	conf, err := core.Load()
	errAndDie(err)

	// createdb runs before a connection to the app DB can exist
	if len(os.Args) > 1 && os.Args[1] == "createdb" {
		errAndDie(database.CreateIfNotExist(conf))
		logger.Println("database ready")
		return
	}

	// set up DB
	db, err := database.Open(conf)
	errAndDie(err)
	defer db.Close()
	errAndDie(db.Ping())

	// start CLI
	cli := commandLine{
		db:           db,
		usrRepo:      sqlxrepos.NewUserRepository(db),
		academicRepo: sqlxrepos.NewAcademicRepository(db),
		matRepo:      sqlxrepos.NewMatriculaRepository(db),
		gradeRepo:    sqlxrepos.NewGradeRepository(db),
	}
	if err := cli.run(os.Args); err != nil {
		if err != errHelp {
			logger.Printf("\nerror: %s\n", err)
		}
		os.Exit(1)
	}
}

func errAndDie(err error) {
	if err != nil {
		logger.Fatal(err)
	}
}
