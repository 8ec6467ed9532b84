package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/meetcal/meetcal/internal/logger"
	"github.com/meetcal/meetcal/internal/mail"
	"github.com/meetcal/meetcal/internal/rabbit"
	log "github.com/sirupsen/logrus"
	"github.com/streadway/amqp"
)

var configFile string

func init() {
	flag.StringVar(&configFile, "config", "./configs/sender_config.yaml", "Path to configuration file")
	log.SetFormatter(&log.TextFormatter{})
	log.SetOutput(os.Stdout)
	log.SetLevel(log.WarnLevel)
}

func main() {
	flag.Parse()

	config, err := NewConfig(configFile)
	if err != nil {
		log.Errorf("failed to start %v", err)
		return
	}
	err = logger.PrepareLogger(config.Logger)
	if err != nil {
		log.Errorf("failed to start %v", err)
		return
	}

	r := rabbit.New(config.Rabbit)
	if err := r.Connect(); err != nil {
		log.Errorf("failed to connect to rabbit: %v", err)
		return
	}
	defer r.Close()

	mailer := mail.New(config.SMTP)

	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM, syscall.SIGHUP)
	defer cancel()

	log.Info("sender is running...")
	err = r.Consume(ctx, func(msg amqp.Delivery) {
		m := rabbit.Message{}
		if err := json.Unmarshal(msg.Body, &m); err != nil {
			log.Errorf("failed to parse reminder message: %s", err)
			return
		}
		log.Debugf("sending reminder for meeting %d to %s", m.MeetingID, strings.Join(m.To, ","))
		if err := mailer.Send(m.From, m.To, subject(m), body(m)); err != nil {
			log.Errorf("failed to deliver reminder for meeting %d: %s", m.MeetingID, err)
		}
	})
	if err != nil {
		log.Errorf("failed to consume: %v", err)
	}
}

func subject(m rabbit.Message) string {
	return fmt.Sprintf("[%s] Reminder: %s on %s", m.Calendar, m.Name, m.Date)
}

func body(m rabbit.Message) string {
	b := strings.Builder{}
	fmt.Fprintf(&b, "Dear all,\n\nThe meeting %q starts at %s %s (%s).\n",
		m.Name, m.Date, m.TimeStart, m.Timezone)
	if m.Location != "" {
		fmt.Fprintf(&b, "Location: %s\n", m.Location)
	}
	if m.Information != "" {
		fmt.Fprintf(&b, "\n%s\n", m.Information)
	}
	if m.Text != "" {
		fmt.Fprintf(&b, "\n%s\n", m.Text)
	}
	return b.String()
}
