// Package devices persists catalog devices as a parent row in "devices"
// plus exactly one child row in the table of the device's kind.
//
// # Write protocol
//
// Insert and Update run inside a single gorm transaction: the parent row is
// written first, then the child row. If either statement touches zero rows
// the transaction is rolled back, so a parent without its child is never
// visible. Delete issues one statement against the parent table and relies
// on ON DELETE CASCADE to remove the child.
//
// # Optimistic concurrency
//
// Every parent row carries a row_version token. Update only matches
// "WHERE id = ? AND row_version = ?" and issues a fresh token on success.
// A miss is reported as ErrNotFoundOrConflict; the store cannot tell a
// missing row from a stale token without a preceding read.
//
// # Usage
//
//	repo := devices.NewRepository(db.DB)
//	err := repo.Insert(ctx, device)
package devices

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/mattn/go-sqlite3"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/mrlokans/devicecatalog/internal/entities"
)

var (
	ErrNotFoundOrConflict = errors.New("device not found or modified by someone else")
	ErrDuplicateID        = errors.New("device id already exists")
	ErrIncompleteWrite    = errors.New("device write affected no rows")
	ErrCorruptRecord      = errors.New("device has no kind-specific row")
	ErrUnknownKind        = errors.New("unknown device kind")
	ErrMissingID          = errors.New("device id is required")
)

// StorageError wraps a database failure raised during a store operation.
type StorageError struct {
	Op  string
	Err error
}

func (e *StorageError) Error() string {
	return fmt.Sprintf("device store %s: %v", e.Op, e.Err)
}

func (e *StorageError) Unwrap() error {
	return e.Err
}

// Repository handles all device database operations.
type Repository struct {
	db *gorm.DB
}

// NewRepository creates a new device repository.
func NewRepository(db *gorm.DB) *Repository {
	return &Repository{db: db}
}

func newVersion() string {
	return uuid.NewString()
}

// GetAll returns the parent-only projection of every device, ordered by id.
// Kind-specific fields are not loaded on this path.
func (r *Repository) GetAll(ctx context.Context) ([]entities.DeviceSummary, error) {
	var rows []DeviceRow
	if err := r.db.WithContext(ctx).Order("id ASC").Find(&rows).Error; err != nil {
		return nil, &StorageError{Op: "list", Err: err}
	}

	summaries := make([]entities.DeviceSummary, 0, len(rows))
	for _, row := range rows {
		summaries = append(summaries, summaryFromRow(row))
	}
	return summaries, nil
}

// GetByID loads a device with its kind-specific fields. It returns (nil, nil)
// when no device has the id.
func (r *Repository) GetByID(ctx context.Context, id string) (*entities.Device, error) {
	var device *entities.Device
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var row DeviceRow
		err := tx.Where("id = ?", id).First(&row).Error
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil
		}
		if err != nil {
			return err
		}

		details, err := loadDetails(tx, id)
		if err != nil {
			return err
		}

		device = &entities.Device{
			ID:      row.ID,
			Name:    row.Name,
			Enabled: row.IsEnabled,
			Version: row.RowVersion,
			Details: details,
		}
		return nil
	})
	if err != nil {
		return nil, wrapStorage("get", err)
	}
	return device, nil
}

func loadDetails(tx *gorm.DB, id string) (entities.Details, error) {
	kind, ok := entities.KindFromID(id)
	if !ok {
		return nil, fmt.Errorf("%w: id %q", ErrCorruptRecord, id)
	}

	var err error
	var details entities.Details
	switch kind {
	case entities.KindPersonalComputer:
		var row PersonalComputerRow
		err = tx.Where("device_id = ?", id).First(&row).Error
		details = &entities.PersonalComputer{OperatingSystem: row.OperatingSystem}
	case entities.KindSmartwatch:
		var row SmartwatchRow
		err = tx.Where("device_id = ?", id).First(&row).Error
		details = &entities.Smartwatch{BatteryLevel: row.BatteryLevel}
	case entities.KindEmbedded:
		var row EmbeddedRow
		err = tx.Where("device_id = ?", id).First(&row).Error
		details = &entities.Embedded{IPAddress: row.IPAddress, NetworkName: row.NetworkName}
	}
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, fmt.Errorf("%w: %s", ErrCorruptRecord, id)
	}
	if err != nil {
		return nil, err
	}
	return details, nil
}

// Exists reports whether a parent row with the id is present.
func (r *Repository) Exists(ctx context.Context, id string) (bool, error) {
	var count int64
	err := r.db.WithContext(ctx).Model(&DeviceRow{}).Where("id = ?", id).Count(&count).Error
	if err != nil {
		return false, &StorageError{Op: "exists", Err: err}
	}
	return count > 0, nil
}

// Insert writes the parent and child rows in one transaction and sets
// device.Version to the issued token. The device must already carry an id.
func (r *Repository) Insert(ctx context.Context, device *entities.Device) error {
	if device == nil || device.ID == "" {
		return ErrMissingID
	}
	child, err := childRow(device)
	if err != nil {
		return err
	}

	version := newVersion()
	parent := &DeviceRow{
		ID:         device.ID,
		Name:       device.Name,
		IsEnabled:  device.Enabled,
		RowVersion: version,
	}

	err = r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		result := tx.Omit(clause.Associations).Create(parent)
		if result.Error != nil {
			return result.Error
		}
		if result.RowsAffected == 0 {
			return ErrIncompleteWrite
		}

		result = tx.Omit(clause.Associations).Create(child)
		if result.Error != nil {
			return result.Error
		}
		if result.RowsAffected == 0 {
			return ErrIncompleteWrite
		}
		return nil
	})
	if err != nil {
		return wrapStorage("insert", err)
	}

	device.Version = version
	return nil
}

// Update writes the parent row guarded by device.Version, then the child
// row, in one transaction. On success device.Version holds the new token.
func (r *Repository) Update(ctx context.Context, device *entities.Device) error {
	if device == nil || device.ID == "" {
		return ErrMissingID
	}
	model, columns, err := childUpdate(device)
	if err != nil {
		return err
	}

	version := newVersion()
	err = r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		result := tx.Model(&DeviceRow{}).
			Where("id = ? AND row_version = ?", device.ID, device.Version).
			Updates(map[string]any{
				"name":        device.Name,
				"is_enabled":  device.Enabled,
				"row_version": version,
			})
		if result.Error != nil {
			return result.Error
		}
		if result.RowsAffected == 0 {
			return ErrNotFoundOrConflict
		}

		result = tx.Model(model).Where("device_id = ?", device.ID).Updates(columns)
		if result.Error != nil {
			return result.Error
		}
		if result.RowsAffected == 0 {
			return fmt.Errorf("%w: no %s row for %s", ErrIncompleteWrite, device.Kind(), device.ID)
		}
		return nil
	})
	if err != nil {
		return wrapStorage("update", err)
	}

	device.Version = version
	return nil
}

// Delete removes the parent row; the child row goes with it through the
// cascading foreign key. It reports whether anything was removed.
func (r *Repository) Delete(ctx context.Context, id string) (bool, error) {
	var removed int64
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		result := tx.Where("id = ?", id).Delete(&DeviceRow{})
		removed = result.RowsAffected
		return result.Error
	})
	if err != nil {
		return false, wrapStorage("delete", err)
	}
	return removed > 0, nil
}

// Count returns the number of stored devices per kind.
func (r *Repository) Count(ctx context.Context) (map[entities.Kind]int64, error) {
	models := map[entities.Kind]any{
		entities.KindPersonalComputer: &PersonalComputerRow{},
		entities.KindSmartwatch:       &SmartwatchRow{},
		entities.KindEmbedded:         &EmbeddedRow{},
	}

	counts := make(map[entities.Kind]int64, len(models))
	for kind, model := range models {
		var n int64
		if err := r.db.WithContext(ctx).Model(model).Count(&n).Error; err != nil {
			return nil, &StorageError{Op: "count", Err: err}
		}
		counts[kind] = n
	}
	return counts, nil
}

// wrapStorage passes protocol errors through and converts everything else
// into a *StorageError.
func wrapStorage(op string, err error) error {
	switch {
	case errors.Is(err, ErrNotFoundOrConflict),
		errors.Is(err, ErrIncompleteWrite),
		errors.Is(err, ErrCorruptRecord):
		return err
	case isDuplicateKey(err):
		return ErrDuplicateID
	}
	return &StorageError{Op: op, Err: err}
}

func isDuplicateKey(err error) bool {
	if errors.Is(err, gorm.ErrDuplicatedKey) {
		return true
	}
	var sqliteErr sqlite3.Error
	if errors.As(err, &sqliteErr) {
		return sqliteErr.ExtendedCode == sqlite3.ErrConstraintPrimaryKey ||
			sqliteErr.ExtendedCode == sqlite3.ErrConstraintUnique
	}
	return false
}
