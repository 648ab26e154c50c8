package backend

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"lifedash/internal/config"
	"lifedash/internal/docstore"
)

func TestFromAppConfig(t *testing.T) {
	if _, err := FromAppConfig(nil); err == nil {
		t.Error("nil config should fail")
	}

	app := config.Defaults()
	app.DataBackend = "postgres"
	app.PostgresDSN = "postgres://localhost/lifedash"
	cfg, err := FromAppConfig(app)
	if err != nil {
		t.Fatalf("FromAppConfig: %v", err)
	}
	if cfg.Type != PostgresBackend || cfg.PostgresDSN != app.PostgresDSN {
		t.Errorf("cfg = %+v", cfg)
	}

	app.DataBackend = "sheets"
	if _, err := FromAppConfig(app); err == nil {
		t.Error("sheets is no longer a storage backend")
	}
}

func TestConfig_Validate(t *testing.T) {
	tests := []struct {
		name    string
		cfg     Config
		wantErr bool
	}{
		{"memory", Config{Type: MemoryBackend}, false},
		{"sqlite", Config{Type: SQLiteBackend, SQLiteDBPath: "x.db"}, false},
		{"sqlite without path", Config{Type: SQLiteBackend}, true},
		{"postgres without dsn", Config{Type: PostgresBackend}, true},
		{"unknown", Config{Type: "mongo"}, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if err := tt.cfg.Validate(); (err != nil) != tt.wantErr {
				t.Errorf("Validate() = %v, wantErr %v", err, tt.wantErr)
			}
		})
	}
}

func TestGetBackendTypeStrings(t *testing.T) {
	got := GetBackendTypeStrings()
	if len(got) != 3 || got[0] != "sqlite" || got[1] != "postgres" || got[2] != "memory" {
		t.Errorf("GetBackendTypeStrings() = %v", got)
	}
}

func TestFactory_Memory(t *testing.T) {
	dir := t.TempDir()
	seed := `[{"habit":"read","day":"2024-06-05"},{"habit":"run","day":"2024-06-05"}]`
	if err := os.WriteFile(filepath.Join(dir, "seed_habits.json"), []byte(seed), 0o600); err != nil {
		t.Fatal(err)
	}

	res, err := NewFactory(nil).CreateBackend(context.Background(), Config{Type: MemoryBackend, DataDirectory: dir})
	if err != nil {
		t.Fatalf("CreateBackend: %v", err)
	}
	defer res.Close()

	if res.Tracker != nil {
		t.Error("memory backend should not track sync state")
	}
	docs, err := res.Store.ListAll(context.Background(), docstore.Habits)
	if err != nil || len(docs) != 2 {
		t.Errorf("seeded habits = %d, %v", len(docs), err)
	}
}

func TestFactory_SQLite(t *testing.T) {
	path := filepath.Join(t.TempDir(), "lifedash.db")
	res, err := NewFactory(nil).CreateBackend(context.Background(), Config{Type: SQLiteBackend, SQLiteDBPath: path})
	if err != nil {
		t.Fatalf("CreateBackend: %v", err)
	}
	if res.Tracker == nil {
		t.Error("sqlite backend should track sync state")
	}
	if _, err := res.Store.Save(context.Background(), docstore.Words, docstore.Fields{"tr": "ev"}); err != nil {
		t.Errorf("Save: %v", err)
	}
	if err := res.Close(); err != nil {
		t.Errorf("Close: %v", err)
	}
}

func TestBackendResult_CloseNil(t *testing.T) {
	var res *BackendResult
	if err := res.Close(); err != nil {
		t.Errorf("Close on nil result = %v", err)
	}
}
