package db

import (
	"fmt"

	"gorm.io/gorm"

	types "github.com/yungbote/deelicious-bakes-backend/internal/domain"
)

func AutoMigrateAll(db *gorm.DB) error {
	if err := db.AutoMigrate(types.Models()...); err != nil {
		return fmt.Errorf("automigrate: %w", err)
	}
	return EnsureIndexes(db)
}

// EnsureIndexes adds the composite indexes the struct tags cannot express.
// Every statement is valid on both postgres and sqlite.
func EnsureIndexes(db *gorm.DB) error {
	stmts := []struct {
		name string
		sql  string
	}{
		{"idx_category_parent_sort", `CREATE INDEX IF NOT EXISTS idx_category_parent_sort ON category (parent_id, sort_order, name)`},
		{"idx_product_category_active", `CREATE INDEX IF NOT EXISTS idx_product_category_active ON product (category_id, is_active)`},
		{"idx_product_variant_facets", `CREATE INDEX IF NOT EXISTS idx_product_variant_facets ON product_variant (product_id, is_available)`},
		{"idx_cart_item_cart_product", `CREATE INDEX IF NOT EXISTS idx_cart_item_cart_product ON cart_item (cart_id, product_id)`},
		{"idx_order_user_created", `CREATE INDEX IF NOT EXISTS idx_order_user_created ON customer_order (user_id, created_at)`},
		{"idx_message_thread_read", `CREATE INDEX IF NOT EXISTS idx_message_thread_read ON message (thread_id, is_from_customer, is_read)`},
		{"idx_thread_user_last", `CREATE INDEX IF NOT EXISTS idx_thread_user_last ON message_thread (user_id, last_message_at)`},
	}
	for _, s := range stmts {
		if err := db.Exec(s.sql).Error; err != nil {
			return fmt.Errorf("create %s: %w", s.name, err)
		}
	}
	return nil
}
