package config

import (
	"errors"
	"io/fs"
	"os"

	"github.com/joho/godotenv"
)

// EnvConfig holds the result sink endpoints, read from the process
// environment after an optional .env file.
type EnvConfig struct {
	NATSURL     string
	NATSSubject string
	SQSQueueURL string
	AWSRegion   string
	HistoryDB   string
	Textfile    string
}

// ReadEnvConfig loads the given .env files, if present, and reads the sink
// settings. Variables already set in the environment are not overridden.
func ReadEnvConfig(files ...string) (EnvConfig, error) {
	if len(files) == 0 {
		files = []string{".env"}
	}
	for _, f := range files {
		if err := godotenv.Load(f); err != nil && !errors.Is(err, fs.ErrNotExist) {
			return EnvConfig{}, err
		}
	}
	return EnvConfig{
		NATSURL:     os.Getenv("NATS_URL"),
		NATSSubject: os.Getenv("NATS_SUBJECT"),
		SQSQueueURL: os.Getenv("SQS_QUEUE_URL"),
		AWSRegion:   os.Getenv("AWS_REGION"),
		HistoryDB:   os.Getenv("PERFTESTER_HISTORY_DB"),
		Textfile:    os.Getenv("PERFTESTER_TEXTFILE"),
	}, nil
}
