package repository

import (
	"context"
	"database/sql"
	"fmt"

	"deligo/internal/domain"
	"deligo/internal/errors"
)

type MySQLRestaurantRepository struct {
	db *sql.DB
}

func NewMySQLRestaurantRepository(db *sql.DB) *MySQLRestaurantRepository {
	return &MySQLRestaurantRepository{db: db}
}

// FindByID loads the restaurant together with its full menu. The menu is
// embedded because pricing needs the whole snapshot anyway.
func (r *MySQLRestaurantRepository) FindByID(ctx context.Context, id uint) (*domain.Restaurant, error) {
	query := `
		SELECT id, name, address, hotline
		FROM Restaurants
		WHERE id = ?
	`

	var restaurant domain.Restaurant
	err := r.db.QueryRowContext(ctx, query, id).Scan(
		&restaurant.ID, &restaurant.Name, &restaurant.Address, &restaurant.Hotline,
	)

	if err == sql.ErrNoRows {
		return nil, errors.NewNotFoundError(fmt.Sprintf("restaurant with id %d not found", id))
	}
	if err != nil {
		return nil, fmt.Errorf("querying restaurant by id: %w", err)
	}

	menuQuery := `
		SELECT id, restaurantId, foodName, price, category, isAvailable
		FROM MenuItems
		WHERE restaurantId = ?
	`

	rows, err := r.db.QueryContext(ctx, menuQuery, id)
	if err != nil {
		return nil, fmt.Errorf("querying restaurant menu: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var item domain.MenuItem
		err := rows.Scan(
			&item.ID, &item.RestaurantID, &item.FoodName,
			&item.Price, &item.Category, &item.Available,
		)
		if err != nil {
			return nil, fmt.Errorf("scanning menu item row: %w", err)
		}
		restaurant.Menu = append(restaurant.Menu, item)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating menu item rows: %w", err)
	}

	return &restaurant, nil
}
