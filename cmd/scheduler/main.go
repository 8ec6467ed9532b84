package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/robfig/cron/v3"

	"github.com/meetcal/meetcal/internal/app"
	"github.com/meetcal/meetcal/internal/logger"
	"github.com/meetcal/meetcal/internal/rabbit"
	"github.com/meetcal/meetcal/internal/storage"
	"github.com/meetcal/meetcal/internal/storagebuilder"
	log "github.com/sirupsen/logrus"
)

var configFile string

func newMessage(m storage.Meeting) rabbit.Message {
	msg := rabbit.Message{
		MeetingID:   m.ID,
		Name:        m.Name,
		Calendar:    m.CalendarName,
		Date:        m.Date.Format("2006-01-02"),
		TimeStart:   m.TimeStart.Format("15:04"),
		TimeStop:    m.TimeStop.Format("15:04"),
		Timezone:    m.Timezone,
		Location:    m.Location,
		Information: m.Information,
	}
	if m.Reminder != nil {
		msg.Offset = m.Reminder.Offset
		msg.From = m.Reminder.From
		msg.To = m.Reminder.To
		msg.Text = m.Reminder.Text
	}
	return msg
}

func init() {
	flag.StringVar(&configFile, "config", "./configs/scheduler_config.yaml", "Path to configuration file")
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

	stor, err := storagebuilder.New(config.Storage)
	if err != nil {
		log.Errorf("failed to start %v", err)
		return
	}
	defer func() {
		ctx, cancel := context.WithTimeout(context.Background(), time.Second*3)
		defer cancel()
		stor.Close(ctx)
	}()

	calendar := app.New(stor, "")

	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM, syscall.SIGHUP)
	defer cancel()

	// Ticks never overlap: reminders are de-duplicated by cadence
	// matching the tick window, not by tracking sent state.
	c := cron.New(cron.WithChain(cron.SkipIfStillRunning(cron.DefaultLogger)))
	spec := fmt.Sprintf("@every %dm", config.Scheduler.TickWindowMinutes)
	_, err = c.AddFunc(spec, func() {
		tick(ctx, calendar, r, config.Scheduler.TickWindowMinutes)
	})
	if err != nil {
		log.Errorf("failed to schedule tick: %v", err)
		return
	}

	log.Info("scheduler is running...")
	c.Start()
	<-ctx.Done()
	<-c.Stop().Done()
}

func tick(ctx context.Context, calendar *app.App, r *rabbit.Provider, tickWindowMinutes int) {
	now := time.Now().UTC()
	log.Debugf("reminder tick at %s", now)
	meetings, err := calendar.DueReminders(ctx, now, tickWindowMinutes)
	if err != nil {
		log.Errorf("failed to get due reminders: %s", err)
		return
	}
	for _, m := range meetings {
		log.Debugf("send reminder for meeting %d on %s", m.ID, m.Date.Format("2006-01-02"))
		data, err := json.Marshal(newMessage(m))
		if err != nil {
			log.Errorf("failed to marshal reminder: %s", err)
			continue
		}
		if err := r.Publish(data); err != nil {
			log.Errorf("failed to publish reminder: %s", err)
		}
	}
}
