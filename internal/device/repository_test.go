package device

import (
	"context"
	"testing"
	"time"

	"github.com/fieldmesh/fieldmesh-core/internal/infrastructure/database/dbtest"
)

func TestSQLiteRepository_ExistsBy(t *testing.T) {
	repo := NewSQLiteRepository(dbtest.Open(t).DB)
	ctx := context.Background()

	d := &Device{SerialNumber: "SN-1", OwnerID: "usr-1", ZoneID: "zone-1", Status: StatusActive, InstalledAt: time.Now()}
	if err := repo.Create(ctx, d); err != nil {
		t.Fatalf("Create() error = %v", err)
	}

	tests := []struct {
		name string
		fn   func(context.Context, string) (bool, error)
		id   string
		want bool
	}{
		{"owner match", repo.ExistsByOwner, "usr-1", true},
		{"owner miss", repo.ExistsByOwner, "usr-2", false},
		{"zone match", repo.ExistsByZone, "zone-1", true},
		{"zone miss", repo.ExistsByZone, "zone-2", false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := tt.fn(ctx, tt.id)
			if err != nil {
				t.Fatalf("error = %v", err)
			}
			if got != tt.want {
				t.Errorf("got %v, want %v", got, tt.want)
			}
		})
	}
}

func TestSQLiteRepository_SensorsColumn(t *testing.T) {
	repo := NewSQLiteRepository(dbtest.Open(t).DB)
	ctx := context.Background()

	d := &Device{SerialNumber: "SN-1", OwnerID: "usr-1", ZoneID: "zone-1", Status: StatusActive}
	if err := repo.Create(ctx, d); err != nil {
		t.Fatalf("Create() error = %v", err)
	}
	if d.Sensors == nil {
		t.Error("Create() left Sensors nil, want empty slice")
	}

	got, err := repo.GetByID(ctx, d.ID)
	if err != nil {
		t.Fatalf("GetByID() error = %v", err)
	}
	if got.Sensors == nil || len(got.Sensors) != 0 {
		t.Errorf("Sensors = %#v, want empty slice", got.Sensors)
	}
	// Neither reference resolves in an empty store.
	if got.Owner != nil || got.Zone != nil {
		t.Errorf("expansion = %+v / %+v, want nil", got.Owner, got.Zone)
	}

	got.Sensors = []string{"sen-1", "sen-2"}
	if err := repo.Update(ctx, got); err != nil {
		t.Fatalf("Update() error = %v", err)
	}
	again, err := repo.GetByID(ctx, d.ID)
	if err != nil {
		t.Fatalf("GetByID() error = %v", err)
	}
	if len(again.Sensors) != 2 || again.Sensors[1] != "sen-2" {
		t.Errorf("Sensors = %v, want [sen-1 sen-2]", again.Sensors)
	}
}
