package ingest

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/fieldmesh/fieldmesh-core/internal/infrastructure/database/dbtest"
	"github.com/fieldmesh/fieldmesh-core/internal/infrastructure/logging"
	"github.com/fieldmesh/fieldmesh-core/internal/infrastructure/mqtt"
	"github.com/fieldmesh/fieldmesh-core/internal/reading"
	"github.com/fieldmesh/fieldmesh-core/internal/sensor"
)

// fakeBus records subscriptions instead of talking to a broker.
type fakeBus struct {
	subscribed map[string]mqtt.MessageHandler
	err        error
}

func (b *fakeBus) Subscribe(topic string, _ byte, handler mqtt.MessageHandler) error {
	if b.err != nil {
		return b.err
	}
	if b.subscribed == nil {
		b.subscribed = make(map[string]mqtt.MessageHandler)
	}
	b.subscribed[topic] = handler
	return nil
}

func (b *fakeBus) Unsubscribe(topic string) error {
	delete(b.subscribed, topic)
	return nil
}

type fixture struct {
	sub      *Subscriber
	bus      *fakeBus
	readings *reading.Service
	sensor   *sensor.Sensor
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	db := dbtest.Open(t)

	readingRepo := reading.NewSQLiteRepository(db.DB)
	sensors := sensor.NewService(sensor.NewSQLiteRepository(db.DB), readingRepo)
	readings := reading.NewService(readingRepo, sensors)
	readings.SetLogger(logging.Discard())

	sn, err := sensors.Create(context.Background(), sensor.CreateInput{Type: sensor.TypeCO2, Unit: "ppm"})
	if err != nil {
		t.Fatalf("creating sensor: %v", err)
	}

	bus := &fakeBus{}
	return &fixture{
		sub:      NewSubscriber(bus, readings, 1, logging.Discard()),
		bus:      bus,
		readings: readings,
		sensor:   sn,
	}
}

func (f *fixture) count(t *testing.T) int {
	t.Helper()
	all, err := f.readings.List(context.Background())
	if err != nil {
		t.Fatalf("List() error = %v", err)
	}
	return len(all)
}

func TestSubscriber_StartStop(t *testing.T) {
	f := newFixture(t)

	if err := f.sub.Start(); err != nil {
		t.Fatalf("Start() error = %v", err)
	}
	if _, ok := f.bus.subscribed["fieldmesh/ingest/reading/+"]; !ok {
		t.Errorf("subscriptions = %v, want ingest wildcard", f.bus.subscribed)
	}

	if err := f.sub.Stop(); err != nil {
		t.Fatalf("Stop() error = %v", err)
	}
	if len(f.bus.subscribed) != 0 {
		t.Errorf("subscriptions after Stop = %v", f.bus.subscribed)
	}
}

func TestSubscriber_StartFailure(t *testing.T) {
	f := newFixture(t)
	f.bus.err = mqtt.ErrNotConnected

	if err := f.sub.Start(); !errors.Is(err, mqtt.ErrNotConnected) {
		t.Errorf("Start() error = %v, want ErrNotConnected", err)
	}
}

func TestHandleMessage_CreatesReading(t *testing.T) {
	f := newFixture(t)

	var created *reading.Reading
	f.sub.OnCreated(func(rd *reading.Reading) { created = rd })

	topic := mqtt.Topics{}.IngestReading(f.sensor.ID)
	if err := f.sub.HandleMessage(topic, []byte(`{"value": 612, "time": "2026-03-01T12:00:00Z"}`)); err != nil {
		t.Fatalf("HandleMessage() error = %v", err)
	}

	if created == nil {
		t.Fatal("OnCreated callback not invoked")
	}
	if created.SensorID != f.sensor.ID || created.Value != 612 {
		t.Errorf("created = %+v", created)
	}
	want := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	if !created.Time.Equal(want) {
		t.Errorf("Time = %v, want %v", created.Time, want)
	}
	if n := f.count(t); n != 1 {
		t.Errorf("stored readings = %d, want 1", n)
	}
}

func TestHandleMessage_TimeDefaultsToNow(t *testing.T) {
	f := newFixture(t)
	var created *reading.Reading
	f.sub.OnCreated(func(rd *reading.Reading) { created = rd })

	before := time.Now().Add(-time.Second)
	if err := f.sub.HandleMessage(mqtt.Topics{}.IngestReading(f.sensor.ID), []byte(`{"value": 0}`)); err != nil {
		t.Fatalf("HandleMessage() error = %v", err)
	}
	if created == nil || created.Time.Before(before) {
		t.Errorf("created = %+v, want time defaulted to now", created)
	}
	if created != nil && created.Value != 0 {
		t.Errorf("Value = %v, want 0", created.Value)
	}
}

func TestHandleMessage_Rejections(t *testing.T) {
	f := newFixture(t)

	tests := []struct {
		name    string
		topic   string
		payload string
		want    error
	}{
		{
			name:    "unknown sensor",
			topic:   mqtt.Topics{}.IngestReading("sen-missing"),
			payload: `{"value": 1}`,
			want:    reading.ErrSensorNotFound,
		},
		{
			name:    "missing value",
			topic:   mqtt.Topics{}.IngestReading(f.sensor.ID),
			payload: `{"time": "2026-03-01T12:00:00Z"}`,
			want:    reading.ErrValueRequired,
		},
		{
			name:    "not json",
			topic:   mqtt.Topics{}.IngestReading(f.sensor.ID),
			payload: `value=1`,
			want:    ErrInvalidPayload,
		},
		{
			name:    "unknown field",
			topic:   mqtt.Topics{}.IngestReading(f.sensor.ID),
			payload: `{"value": 1, "unit": "ppm"}`,
			want:    ErrInvalidPayload,
		},
		{
			name:    "wrong topic",
			topic:   "fieldmesh/core/event/reading/created",
			payload: `{"value": 1}`,
			want:    ErrInvalidTopic,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := f.sub.HandleMessage(tt.topic, []byte(tt.payload))
			if !errors.Is(err, tt.want) {
				t.Errorf("HandleMessage() error = %v, want %v", err, tt.want)
			}
		})
	}

	if n := f.count(t); n != 0 {
		t.Errorf("stored readings = %d, want 0 after rejections", n)
	}
}
