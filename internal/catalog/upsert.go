package catalog

import (
	"context"
	"errors"
	"fmt"
)

// UpsertCategory inserts or updates a category.
func (c *Catalog) UpsertCategory(ctx context.Context, cat Category) error {
	if cat.ID == "" {
		return fmt.Errorf("category ID cannot be empty")
	}

	_, err := c.db.ExecContext(ctx, `
		INSERT INTO categories (id, name, description) VALUES (?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET name = excluded.name, description = excluded.description`,
		cat.ID, cat.Name, cat.Description)
	if err != nil {
		return fmt.Errorf("upserting category %q: %w", cat.ID, err)
	}
	return nil
}

// GetOrCreateService returns the existing service with the same name and
// type, creating it first when missing. Seeding runs are idempotent.
func (c *Catalog) GetOrCreateService(ctx context.Context, svc Service) (*Service, error) {
	if svc.Name == "" || svc.Type == "" {
		return nil, fmt.Errorf("service name and type are required")
	}

	row := c.db.QueryRowContext(ctx,
		`SELECT `+serviceColumns+` FROM services WHERE name = ? AND service_type = ?`,
		svc.Name, svc.Type)

	existing, err := scanService(row)
	if err == nil {
		return existing, nil
	}
	if !errors.Is(err, ErrNotFound) {
		return nil, fmt.Errorf("querying service %q: %w", svc.Name, err)
	}

	res, err := c.db.ExecContext(ctx, `
		INSERT INTO services (name, service_type, category_id, district, phone, email)
		VALUES (?, ?, ?, ?, ?, ?)`,
		svc.Name, svc.Type, svc.CategoryID, svc.District, svc.Phone, svc.Email)
	if err != nil {
		return nil, fmt.Errorf("creating service %q: %w", svc.Name, err)
	}

	id, err := res.LastInsertId()
	if err != nil {
		return nil, fmt.Errorf("reading service ID: %w", err)
	}

	svc.ID = id
	return &svc, nil
}

// GetOrCreateBuilding returns the building at street/number, creating it
// first when missing.
func (c *Catalog) GetOrCreateBuilding(ctx context.Context, b Building) (*Building, error) {
	if b.Street == "" || b.Number == "" {
		return nil, fmt.Errorf("building street and number are required")
	}

	existing, err := c.FindBuilding(ctx, b.Street, b.Number)
	if err == nil {
		return existing, nil
	}
	if !errors.Is(err, ErrNotFound) {
		return nil, err
	}

	res, err := c.db.ExecContext(ctx,
		`INSERT INTO buildings (street, number, district) VALUES (?, ?, ?)`,
		b.Street, b.Number, b.District)
	if err != nil {
		return nil, fmt.Errorf("creating building %s %s: %w", b.Street, b.Number, err)
	}

	id, err := res.LastInsertId()
	if err != nil {
		return nil, fmt.Errorf("reading building ID: %w", err)
	}

	b.ID = id
	return &b, nil
}

// AssignService binds a service to a building. Repeated assignments are
// no-ops.
func (c *Catalog) AssignService(ctx context.Context, buildingID, serviceID int64) error {
	_, err := c.db.ExecContext(ctx, `
		INSERT INTO service_assignments (building_id, service_id) VALUES (?, ?)
		ON CONFLICT(building_id, service_id) DO NOTHING`,
		buildingID, serviceID)
	if err != nil {
		return fmt.Errorf("assigning service %d to building %d: %w", serviceID, buildingID, err)
	}
	return nil
}
