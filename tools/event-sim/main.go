package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/segmentio/kafka-go"
)

// Publishes a single appointment event so the dashboard's invalidation
// listener can be exercised without a running booking backend.
func main() {
	var (
		brokers = flag.String("brokers", getenv("KAFKA_BROKERS", "localhost:9092"), "comma-separated kafka brokers")
		topic   = flag.String("topic", getenv("KAFKA_TOPIC", "booking.appointment.events.v1"), "event topic")
		store   = flag.String("store-id", getenv("STORE_ID", ""), "store the event belongs to")
		evtType = flag.String("type", getenv("EVENT_TYPE", "appointment.status_changed"), "event type")
		apptID  = flag.String("appointment-id", getenv("APPOINTMENT_ID", ""), "appointment id")
	)
	flag.Parse()

	if strings.TrimSpace(*store) == "" {
		fatal("STORE_ID is required")
	}
	if strings.TrimSpace(*apptID) == "" {
		*apptID = uuid.NewString()
	}

	payload, err := json.Marshal(map[string]any{
		"store_id": *store,
		"type":     *evtType,
		"id":       *apptID,
	})
	if err != nil {
		fatal(err.Error())
	}

	eventID := uuid.NewString()
	w := &kafka.Writer{
		Addr:     kafka.TCP(strings.Split(*brokers, ",")...),
		Topic:    *topic,
		Balancer: &kafka.Hash{},
	}
	defer w.Close()

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	err = w.WriteMessages(ctx, kafka.Message{
		Key:   []byte(*store),
		Value: payload,
		Headers: []kafka.Header{
			{Key: "event_id", Value: []byte(eventID)},
			{Key: "event_type", Value: []byte(*evtType)},
		},
	})
	if err != nil {
		fatal(err.Error())
	}
	fmt.Printf("published event_id=%s type=%s store=%s\n", eventID, *evtType, *store)
}

func getenv(key, fallback string) string {
	if v := strings.TrimSpace(os.Getenv(key)); v != "" {
		return v
	}
	return fallback
}

func fatal(msg string) {
	fmt.Fprintln(os.Stderr, "error: "+msg)
	os.Exit(1)
}
