package sensor

import (
	"context"
	"errors"
	"testing"

	"github.com/fieldmesh/fieldmesh-core/internal/infrastructure/database/dbtest"
	"github.com/fieldmesh/fieldmesh-core/internal/integrity"
)

type fakeReadings struct {
	sensors map[string]bool
	err     error
}

func (f *fakeReadings) ExistsBySensor(_ context.Context, sensorID string) (bool, error) {
	return f.sensors[sensorID], f.err
}

func testService(t *testing.T) (*Service, *fakeReadings) {
	t.Helper()
	readings := &fakeReadings{sensors: map[string]bool{}}
	return NewService(NewSQLiteRepository(dbtest.Open(t).DB), readings), readings
}

func TestService_CreateGetRoundTrip(t *testing.T) {
	svc, _ := testService(t)
	ctx := context.Background()

	s, err := svc.Create(ctx, CreateInput{Type: TypeCO2, Unit: "ppm", Model: "SCD30", Location: "bench 4"})
	if err != nil {
		t.Fatalf("Create() error = %v", err)
	}
	if !s.IsActive {
		t.Error("IsActive default = false, want true")
	}

	got, err := svc.Get(ctx, s.ID)
	if err != nil {
		t.Fatalf("Get() error = %v", err)
	}
	if got.Type != TypeCO2 || got.Unit != "ppm" || got.Model != "SCD30" || got.Location != "bench 4" || !got.IsActive {
		t.Errorf("Get() = %+v", got)
	}
}

func TestService_CreateValidation(t *testing.T) {
	svc, _ := testService(t)

	tests := []struct {
		name string
		in   CreateInput
		want error
	}{
		{"unknown type", CreateInput{Type: "pressure", Unit: "hPa"}, ErrInvalidType},
		{"empty type", CreateInput{Unit: "C"}, ErrInvalidType},
		{"missing unit", CreateInput{Type: TypeNoise}, ErrUnitRequired},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := svc.Create(context.Background(), tt.in)
			if !errors.Is(err, tt.want) {
				t.Errorf("Create() error = %v, want %v", err, tt.want)
			}
			if integrity.StatusOf(err) != 400 {
				t.Errorf("StatusOf() = %d, want 400", integrity.StatusOf(err))
			}
		})
	}
}

func TestService_Update(t *testing.T) {
	svc, _ := testService(t)
	ctx := context.Background()

	s, err := svc.Create(ctx, CreateInput{Type: TypeTemperature, Unit: "C"})
	if err != nil {
		t.Fatalf("Create() error = %v", err)
	}

	unit := "F"
	got, err := svc.Update(ctx, s.ID, Patch{Unit: &unit})
	if err != nil {
		t.Fatalf("Update() error = %v", err)
	}
	if got.Unit != "F" || got.Type != TypeTemperature {
		t.Errorf("Update() = %+v", got)
	}

	bad := Type("lux")
	if _, err := svc.Update(ctx, s.ID, Patch{Type: &bad}); !errors.Is(err, ErrInvalidType) {
		t.Errorf("Update(bad type) error = %v, want ErrInvalidType", err)
	}

	// The rejected patch left the record untouched.
	again, err := svc.Get(ctx, s.ID)
	if err != nil {
		t.Fatalf("Get() error = %v", err)
	}
	if again.Type != TypeTemperature {
		t.Errorf("Type = %q after rejected patch", again.Type)
	}
}

// A sensor with readings cannot be deleted; once they are gone it can,
// and afterwards it is not found.
func TestService_DeleteBlockedByReadings(t *testing.T) {
	svc, readings := testService(t)
	ctx := context.Background()

	s, err := svc.Create(ctx, CreateInput{Type: TypeHumidity, Unit: "%"})
	if err != nil {
		t.Fatalf("Create() error = %v", err)
	}
	readings.sensors[s.ID] = true

	if _, err := svc.Delete(ctx, s.ID); !errors.Is(err, ErrSensorHasReadings) {
		t.Fatalf("Delete() error = %v, want ErrSensorHasReadings", err)
	}
	if _, err := svc.Get(ctx, s.ID); err != nil {
		t.Errorf("sensor removed despite conflict: %v", err)
	}

	delete(readings.sensors, s.ID)
	if _, err := svc.Delete(ctx, s.ID); err != nil {
		t.Fatalf("Delete() error = %v", err)
	}
	if _, err := svc.Get(ctx, s.ID); !errors.Is(err, ErrSensorNotFound) {
		t.Errorf("Get() after delete error = %v, want ErrSensorNotFound", err)
	}
}

func TestService_DeleteUnknownWithoutReadings(t *testing.T) {
	svc, _ := testService(t)
	_, err := svc.Delete(context.Background(), "sen-missing")
	if integrity.StatusOf(err) != 404 {
		t.Errorf("Delete() status = %d, want 404 (err = %v)", integrity.StatusOf(err), err)
	}
}
