package main

import (
	"log"
	"os"

	"github.com/speakmate/speakmate/core"
	"github.com/speakmate/speakmate/core/student"
	emailsvc "github.com/speakmate/speakmate/services/email"
	logsvc "github.com/speakmate/speakmate/services/logger"
	"github.com/speakmate/speakmate/storage/database"
	sqlxdb "github.com/speakmate/speakmate/storage/database/sqlx"
)

var logger core.Logger

func main() {
	conf := core.NewConfig()

	rl := logsvc.NewRollbarLogger(
		log.New(os.Stdout, "ADMIN : ", log.LstdFlags|log.Lmicroseconds|log.Lshortfile),
		conf,
	)
	rl.Enable(!conf.Debug)
	logger = rl

	// set up DB
	database.SetMigrationLogger(log.New(os.Stdout, "DB : ", log.LstdFlags|log.Lmicroseconds|log.Lshortfile))
	db, err := database.Open(conf)
	errAndDie(err)

	// start CLI
	store := sqlxdb.NewRecordStore(db)
	mailer := newEmailService(conf)
	cli := commandLine{
		db:         db,
		studentSvc: student.NewService(store, logger, conf.TemplateEmail, student.WithMailer(mailer)),
	}
	err = cli.run(os.Args)
	if w, ok := mailer.(interface{ Wait() }); ok {
		w.Wait()
	}
	if err != nil && err != errHelp {
		logger.Error("admin command failed", err)
	}
	_ = db.Close()
	rl.Close()
	if err != nil {
		os.Exit(1)
	}
}

func errAndDie(err error) {
	if err != nil {
		logger.Fatal("admin setup failed", err)
	}
}

func newEmailService(conf *core.Config) core.EmailService {
	if conf.Debug {
		return emailsvc.NewConsoleService(conf, logger)
	}
	return emailsvc.NewSendgridService(conf, logger)
}
