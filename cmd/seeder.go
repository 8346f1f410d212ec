package cmd

import (
	"fmt"
	"log"

	"github.com/spf13/cobra"
	"golang.org/x/crypto/bcrypt"
	gormpostgres "gorm.io/driver/postgres"
	"gorm.io/gorm"

	"github.com/jvaldiviezo/contasys/internal"
)

var seedCmd = &cobra.Command{
	Use:   "seed",
	Short: "Seed the database with sample data",
	Long:  `Seed the database with sample data for development and testing purposes.`,
	Run: func(cmd *cobra.Command, args []string) {
		cfg, err := loadConfig(".")
		if err != nil {
			log.Fatalf("failed to load config: %v", err)
		}

		sqlxDB, err := initDB(cfg.Database)
		if err != nil {
			log.Fatalf("failed to init db: %v", err)
		}

		db, err := gorm.Open(gormpostgres.New(gormpostgres.Config{Conn: sqlxDB.DB}), &gorm.Config{})
		if err != nil {
			log.Fatalf("failed to init gorm: %v", err)
		}

		if clearData {
			for _, table := range []string{"bitacora_entries", "alerts", "payments", "obligations", "declarations", "clients", "users"} {
				if err := db.Exec("DELETE FROM " + table).Error; err != nil {
					log.Fatalf("failed to clear %s: %v", table, err)
				}
			}
			fmt.Println("Cleared existing data")
		}

		password := "password"
		hash, _ := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)

		seedUser(db, "mvaldiviezo@contasys.pe", "mvaldiviezo", "María Valdiviezo", internal.RoleContador, string(hash))
		seedUser(db, "jperez@bodega-jp.pe", "jperez", "Juan Pérez", internal.RoleCliente, string(hash))
		seedUser(db, "admin@contasys.pe", "admin", "Administrador", internal.RoleAdmin, string(hash))

		var contadorID, clienteUserID int64
		if err := db.Raw("SELECT id FROM users WHERE username = ?", "mvaldiviezo").Row().Scan(&contadorID); err != nil {
			log.Fatalf("failed to lookup contador: %v", err)
		}
		if err := db.Raw("SELECT id FROM users WHERE username = ?", "jperez").Row().Scan(&clienteUserID); err != nil {
			log.Fatalf("failed to lookup cliente: %v", err)
		}

		var exists int
		if err := db.Raw("SELECT 1 FROM clients WHERE user_id = ?", clienteUserID).Row().Scan(&exists); err != nil {
			if err := db.Exec(
				"INSERT INTO clients (user_id, accountant_id, ruc, business_name, regime, created_at, updated_at) VALUES (?, ?, ?, ?, ?, now(), now())",
				clienteUserID, contadorID, "10456789012", "Bodega JP E.I.R.L.", "NRUS").Error; err != nil {
				log.Fatalf("failed to insert client: %v", err)
			}
			fmt.Println("Seeded client: Bodega JP E.I.R.L.")
		}

		fmt.Println("Seeding complete. Default password for all users:", password)
	},
}

func seedUser(db *gorm.DB, email, username, fullName, role, hash string) {
	var exists int
	if err := db.Raw("SELECT 1 FROM users WHERE username = ?", username).Row().Scan(&exists); err == nil {
		fmt.Printf("user %s already exists\n", username)
		return
	}

	if err := db.Exec(
		"INSERT INTO users (email, username, full_name, password_hash, role, is_active, created_at, updated_at) VALUES (?, ?, ?, ?, ?, true, now(), now())",
		email, username, fullName, hash, role).Error; err != nil {
		log.Fatalf("failed to insert user %s: %v", username, err)
	}
	fmt.Printf("Seeded user: %s (%s)\n", username, role)
}
