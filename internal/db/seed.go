package db

import (
	"fmt"
	"time"

	"gorm.io/gorm"

	"inventario/internal/hash"
	"inventario/internal/models"
)

func date(y int, m time.Month, d int) time.Time {
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

// SeedDemoData loads the demo catalog, users and purchase history. It is a
// no-op when the products table already has rows, so it is safe to call on a
// persistent database.
func SeedDemoData(db *gorm.DB) error {
	var count int64
	if err := db.Model(&models.Product{}).Count(&count).Error; err != nil {
		return fmt.Errorf("seed: count products: %w", err)
	}
	if count > 0 {
		return nil
	}

	products := []models.Product{
		{LoteNumber: "LOT001", Name: "Laptop Dell Inspiron 15", Price: 25000, AvailableQuantity: 15, EntryDate: date(2024, 1, 15), Category: "Electrónicos", Description: "Laptop para uso profesional y personal"},
		{LoteNumber: "LOT002", Name: "Mouse Inalámbrico Logitech", Price: 350, AvailableQuantity: 50, EntryDate: date(2024, 1, 20), Category: "Accesorios", Description: "Mouse ergonómico con conectividad Bluetooth"},
		{LoteNumber: "LOT003", Name: "Teclado Mecánico RGB", Price: 1200, AvailableQuantity: 25, EntryDate: date(2024, 1, 25), Category: "Accesorios", Description: "Teclado mecánico para gaming y productividad"},
		{LoteNumber: "LOT004", Name: "Monitor 27\" 4K", Price: 8500, AvailableQuantity: 8, EntryDate: date(2024, 2, 1), Category: "Monitores", Description: "Monitor profesional con resolución 4K"},
		{LoteNumber: "LOT005", Name: "Auriculares Bluetooth Sony", Price: 2200, AvailableQuantity: 30, EntryDate: date(2024, 2, 5), Category: "Audio", Description: "Auriculares con cancelación de ruido"},
	}
	if err := db.Create(&products).Error; err != nil {
		return fmt.Errorf("seed: products: %w", err)
	}

	users := []struct {
		name, email, password, role string
	}{
		{"Admin Principal", "admin@inventario.com", "admin123", models.RoleAdmin},
		{"Cliente Test", "cliente@inventario.com", "cliente123", models.RoleClient},
		{"Ana García", "ana@inventario.com", "ana123", models.RoleClient},
	}
	for _, u := range users {
		h, err := hash.HashPassword(u.password)
		if err != nil {
			return fmt.Errorf("seed: hash password: %w", err)
		}
		user := models.User{Name: u.name, Email: u.email, PasswordHash: h, Role: u.role}
		if err := db.Create(&user).Error; err != nil {
			return fmt.Errorf("seed: user %s: %w", u.email, err)
		}
	}

	purchases := []models.Order{
		{
			ID: "a3bb4e12-8f26-4f5b-9a0f-5a8f0b1d6c01", ClientID: 2, ClientName: "Cliente Test",
			Total: 25700, PurchaseDate: date(2024, 2, 10), Status: models.OrderStatusCompleted,
			Lines: []models.OrderLine{
				{ProductID: products[0].ID, ProductName: products[0].Name, LoteNumber: products[0].LoteNumber, UnitPrice: products[0].Price, Quantity: 1, Subtotal: 25000},
				{ProductID: products[1].ID, ProductName: products[1].Name, LoteNumber: products[1].LoteNumber, UnitPrice: products[1].Price, Quantity: 2, Subtotal: 700},
			},
		},
		{
			ID: "a3bb4e12-8f26-4f5b-9a0f-5a8f0b1d6c02", ClientID: 3, ClientName: "Ana García",
			Total: 1200, PurchaseDate: date(2024, 2, 12), Status: models.OrderStatusCompleted,
			Lines: []models.OrderLine{
				{ProductID: products[2].ID, ProductName: products[2].Name, LoteNumber: products[2].LoteNumber, UnitPrice: products[2].Price, Quantity: 1, Subtotal: 1200},
			},
		},
		{
			ID: "a3bb4e12-8f26-4f5b-9a0f-5a8f0b1d6c03", ClientID: 2, ClientName: "Cliente Test",
			Total: 2200, PurchaseDate: date(2024, 2, 15), Status: models.OrderStatusPending,
			Lines: []models.OrderLine{
				{ProductID: products[4].ID, ProductName: products[4].Name, LoteNumber: products[4].LoteNumber, UnitPrice: products[4].Price, Quantity: 1, Subtotal: 2200},
			},
		},
	}
	for i := range purchases {
		if err := db.Create(&purchases[i]).Error; err != nil {
			return fmt.Errorf("seed: purchase %s: %w", purchases[i].ID, err)
		}
	}

	return nil
}
