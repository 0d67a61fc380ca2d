// Package export renders user snapshots as CSV files.
package export

import (
	"encoding/csv"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strconv"

	"github.com/google/uuid"

	"telegram-storefront-bot/internal/domain/model"
	"telegram-storefront-bot/internal/infra/geocoding"
)

// FileName is the name the document is delivered under.
const FileName = "users_export.csv"

const (
	PhonePlaceholder = "Нет данных"
	StatusRegistered = "✅"
	StatusPending    = "❌"
	MissingCoord     = "-"
)

var Header = []string{"№", "Telegram ID", "Телефон", "Статус", "Гео-адрес", "Координаты"}

// Row pairs a stored user with its resolved address.
type Row struct {
	User    *model.User
	Address string
}

// Write emits the header and one record per row, numbered from 1.
func Write(w io.Writer, rows []Row) error {
	cw := csv.NewWriter(w)
	if err := cw.Write(Header); err != nil {
		return fmt.Errorf("write header: %w", err)
	}
	for i, r := range rows {
		if err := cw.Write(record(i+1, r)); err != nil {
			return fmt.Errorf("write row %d: %w", i+1, err)
		}
	}
	cw.Flush()
	return cw.Error()
}

// WriteFile writes rows to a uniquely named file in dir and returns its path.
// The caller owns the file and must remove it.
func WriteFile(dir string, rows []Row) (string, error) {
	if dir == "" {
		dir = os.TempDir()
	}
	path := filepath.Join(dir, "users_export_"+uuid.NewString()+".csv")
	f, err := os.OpenFile(path, os.O_CREATE|os.O_EXCL|os.O_WRONLY, 0o600)
	if err != nil {
		return "", fmt.Errorf("create export file: %w", err)
	}
	if err := Write(f, rows); err != nil {
		_ = f.Close()
		_ = os.Remove(path)
		return "", err
	}
	if err := f.Close(); err != nil {
		_ = os.Remove(path)
		return "", fmt.Errorf("close export file: %w", err)
	}
	return path, nil
}

func record(n int, r Row) []string {
	u := r.User
	status := StatusPending
	if u.Registered {
		status = StatusRegistered
	}
	return []string{
		strconv.Itoa(n),
		strconv.FormatInt(u.UserID, 10),
		u.PhoneOr(PhonePlaceholder),
		status,
		r.Address,
		Coordinates(u.Latitude, u.Longitude),
	}
}

// Coordinates renders "lat; lon" with a dash for a missing component.
func Coordinates(lat, lon *float64) string {
	return coord(lat) + "; " + coord(lon)
}

func coord(v *float64) string {
	if v == nil {
		return MissingCoord
	}
	return geocoding.FormatCoord(*v)
}
