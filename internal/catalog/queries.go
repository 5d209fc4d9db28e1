package catalog

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
)

// Category returns a category by ID.
func (c *Catalog) Category(ctx context.Context, id string) (*Category, error) {
	row := c.db.QueryRowContext(ctx,
		`SELECT id, name, description FROM categories WHERE id = ?`, id)

	var cat Category
	if err := row.Scan(&cat.ID, &cat.Name, &cat.Description); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, fmt.Errorf("%w: category %q", ErrNotFound, id)
		}
		return nil, fmt.Errorf("querying category %q: %w", id, err)
	}
	return &cat, nil
}

// ListCategories returns all categories ordered by ID.
func (c *Catalog) ListCategories(ctx context.Context) ([]Category, error) {
	rows, err := c.db.QueryContext(ctx,
		`SELECT id, name, description FROM categories ORDER BY id`)
	if err != nil {
		return nil, fmt.Errorf("listing categories: %w", err)
	}
	defer rows.Close()

	var categories []Category
	for rows.Next() {
		var cat Category
		if err := rows.Scan(&cat.ID, &cat.Name, &cat.Description); err != nil {
			return nil, fmt.Errorf("scanning category: %w", err)
		}
		categories = append(categories, cat)
	}
	return categories, rows.Err()
}

// FindBuilding returns the building at street/number, if registered.
func (c *Catalog) FindBuilding(ctx context.Context, street, number string) (*Building, error) {
	row := c.db.QueryRowContext(ctx,
		`SELECT id, street, number, district FROM buildings WHERE street = ? AND number = ?`,
		street, number)

	var b Building
	if err := row.Scan(&b.ID, &b.Street, &b.Number, &b.District); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, fmt.Errorf("%w: building %s %s", ErrNotFound, street, number)
		}
		return nil, fmt.Errorf("querying building %s %s: %w", street, number, err)
	}
	return &b, nil
}

const serviceColumns = `id, name, service_type, category_id, district, phone, email`

func scanService(row *sql.Row) (*Service, error) {
	var s Service
	err := row.Scan(&s.ID, &s.Name, &s.Type, &s.CategoryID, &s.District, &s.Phone, &s.Email)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return &s, nil
}

// FindBuildingService returns the ОСББ or managing company assigned to
// a building. ОСББ wins when a building has both.
func (c *Catalog) FindBuildingService(ctx context.Context, buildingID int64) (*Service, error) {
	row := c.db.QueryRowContext(ctx, `
		SELECT s.id, s.name, s.service_type, s.category_id, s.district, s.phone, s.email
		FROM services s
		JOIN service_assignments a ON a.service_id = s.id
		WHERE a.building_id = ? AND s.service_type IN (?, ?)
		ORDER BY CASE s.service_type WHEN ? THEN 0 ELSE 1 END
		LIMIT 1`,
		buildingID, ServiceTypeOSBB, ServiceTypeManagement, ServiceTypeOSBB)

	svc, err := scanService(row)
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			return nil, fmt.Errorf("%w: building service for building %d", ErrNotFound, buildingID)
		}
		return nil, fmt.Errorf("querying building service: %w", err)
	}
	return svc, nil
}

// FindDistrictService returns the district administration for a district
// ("Галицький").
func (c *Catalog) FindDistrictService(ctx context.Context, district string) (*Service, error) {
	row := c.db.QueryRowContext(ctx,
		`SELECT `+serviceColumns+` FROM services WHERE service_type = ? AND district = ? LIMIT 1`,
		ServiceTypeDistrict, district)

	svc, err := scanService(row)
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			return nil, fmt.Errorf("%w: district administration for %q", ErrNotFound, district)
		}
		return nil, fmt.Errorf("querying district service: %w", err)
	}
	return svc, nil
}

// FindCitywideService returns the utility company responsible for a
// category ("water_supply" -> Львівводоканал).
func (c *Catalog) FindCitywideService(ctx context.Context, categoryID string) (*Service, error) {
	row := c.db.QueryRowContext(ctx,
		`SELECT `+serviceColumns+` FROM services WHERE service_type = ? AND category_id = ? LIMIT 1`,
		ServiceTypeUtility, categoryID)

	svc, err := scanService(row)
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			return nil, fmt.Errorf("%w: utility for category %q", ErrNotFound, categoryID)
		}
		return nil, fmt.Errorf("querying citywide service: %w", err)
	}
	return svc, nil
}

// FindEmergencyService returns the citywide emergency dispatch service.
func (c *Catalog) FindEmergencyService(ctx context.Context) (*Service, error) {
	row := c.db.QueryRowContext(ctx,
		`SELECT `+serviceColumns+` FROM services WHERE service_type = ? LIMIT 1`,
		ServiceTypeEmergency)

	svc, err := scanService(row)
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			return nil, fmt.Errorf("%w: emergency service", ErrNotFound)
		}
		return nil, fmt.Errorf("querying emergency service: %w", err)
	}
	return svc, nil
}

// Hotline returns the municipal hotline. When no hotline row exists it
// synthesizes the default one so routing always has a fallback.
func (c *Catalog) Hotline(ctx context.Context) (*Service, error) {
	row := c.db.QueryRowContext(ctx,
		`SELECT `+serviceColumns+` FROM services WHERE service_type = ? LIMIT 1`,
		ServiceTypeHotline)

	svc, err := scanService(row)
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			return &Service{Name: HotlineName, Type: ServiceTypeHotline}, nil
		}
		return nil, fmt.Errorf("querying hotline: %w", err)
	}
	return svc, nil
}

// Stats returns row counts for the registry.
func (c *Catalog) Stats(ctx context.Context) (*Stats, error) {
	var s Stats
	row := c.db.QueryRowContext(ctx, `
		SELECT
			(SELECT COUNT(*) FROM categories),
			(SELECT COUNT(*) FROM services),
			(SELECT COUNT(*) FROM buildings),
			(SELECT COUNT(*) FROM service_assignments)`)
	if err := row.Scan(&s.Categories, &s.Services, &s.Buildings, &s.Assignments); err != nil {
		return nil, fmt.Errorf("querying catalog stats: %w", err)
	}
	return &s, nil
}
