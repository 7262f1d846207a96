package seed

import (
	"encoding/csv"
	"io"
	"os"
	"strings"

	"github.com/jmoiron/sqlx"
	"github.com/sirupsen/logrus"

	"musicfestival/m/internal/band"
)

// LoadLineup ingests a CSV lineup (name,genre,stage,scheduled_at) into the
// bands table. A missing file is fine; an empty database is a valid start.
func LoadLineup(db *sqlx.DB, csvPath string, log *logrus.Logger) {
	file, err := os.Open(csvPath)
	if err != nil {
		log.Debugf("no lineup file at %s, skipping seed", csvPath)
		return
	}
	defer file.Close()

	var existing int
	if err := db.Get(&existing, `SELECT COUNT(*) FROM bands`); err != nil {
		log.Warnf("unable to check existing lineup: %v", err)
		return
	}
	if existing > 0 {
		return
	}

	reader := csv.NewReader(file)
	// Skip header
	if _, err := reader.Read(); err != nil {
		log.Warnf("unable to read lineup header: %v", err)
		return
	}

	tx, err := db.Beginx()
	if err != nil {
		log.Warnf("unable to start lineup transaction: %v", err)
		return
	}
	stmt, err := tx.Preparex(`INSERT INTO bands (name, genre, stage, scheduled_at) VALUES (?, ?, ?, ?)`)
	if err != nil {
		log.Warnf("unable to prepare lineup insert: %v", err)
		_ = tx.Rollback()
		return
	}
	defer stmt.Close()

	rows := 0
	for {
		record, err := reader.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			log.Warnf("unable to read lineup row: %v", err)
			continue
		}
		if len(record) < 4 {
			continue
		}
		name := strings.TrimSpace(record[0])
		if name == "" {
			continue
		}

		var scheduledAt interface{}
		if normalized, ok := band.ParseSchedule(record[3]); ok {
			scheduledAt = normalized
		}

		if _, err := stmt.Exec(name, emptyToNil(record[1]), emptyToNil(record[2]), scheduledAt); err != nil {
			log.Warnf("unable to insert band %s: %v", name, err)
		} else {
			rows++
		}
	}

	if err := tx.Commit(); err != nil {
		log.Warnf("unable to commit lineup seed: %v", err)
		return
	}
	log.Infof("seeded lineup with %d bands", rows)
}

func emptyToNil(val string) interface{} {
	trimmed := strings.TrimSpace(val)
	if trimmed == "" {
		return nil
	}
	return trimmed
}
