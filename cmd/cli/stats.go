package cli

import (
	"context"
	"errors"
	"fmt"
	"log"
	"os"

	"github.com/glebarez/sqlite"
	"github.com/spf13/cobra"
	"gorm.io/gorm"

	"github.com/gsinghjay/mvp-qr-gen-sub001/cmd"
	"github.com/gsinghjay/mvp-qr-gen-sub001/internal/config"
	"github.com/gsinghjay/mvp-qr-gen-sub001/internal/encoder"
	qrerrors "github.com/gsinghjay/mvp-qr-gen-sub001/internal/errors"
	"github.com/gsinghjay/mvp-qr-gen-sub001/internal/generator"
	"github.com/gsinghjay/mvp-qr-gen-sub001/internal/repository"
	"github.com/gsinghjay/mvp-qr-gen-sub001/internal/services"
)

// StatsCmd représente la commande 'stats'
var StatsCmd = &cobra.Command{
	Use:   "stats [id]",
	Short: "Get scan statistics for a QR code",
	Long:  `Get scan statistics for the provided QR code identifier.`,
	Args:  cobra.ExactArgs(1),
	Run:   runStats,
}

func init() {
	cmd.RootCmd.AddCommand(StatsCmd)
}

// runStats exécute la logique pour la commande stats
func runStats(cobraCmd *cobra.Command, args []string) {
	id := args[0]

	cfg, err := config.LoadConfig()
	if err != nil {
		log.Fatalf("Échec du chargement de la configuration : %v", err)
	}

	db, err := gorm.Open(sqlite.Open(cfg.Database.Name), &gorm.Config{})
	if err != nil {
		log.Fatalf("Échec de la connexion à la base de données : %v", err)
	}

	sqlDB, err := db.DB()
	if err != nil {
		log.Fatalf("FATAL: Échec de l'obtention de la base de données SQL sous-jacente: %v", err)
	}
	defer sqlDB.Close()

	// Initialiser les repositories et services nécessaires
	qrRepo := repository.NewQRCodeRepository(db)
	scanRepo := repository.NewScanEventRepository(db)
	qrService := services.NewQRService(qrRepo, scanRepo,
		generator.NewIdentifierGenerator(), encoder.NewEncoder(),
		services.QRServiceConfig{
			ResolverBase:     cfg.ResolverBase(),
			MaxContentLength: cfg.QR.MaxContentLength,
			MaxURLLength:     cfg.QR.MaxURLLength,
		})

	stats, err := qrService.GetStats(context.Background(), id)
	if err != nil {
		if errors.Is(err, qrerrors.ErrNotFound) {
			fmt.Printf("Error: QR code '%s' not found\n", id)
		} else {
			fmt.Printf("Error retrieving statistics: %v\n", err)
		}
		os.Exit(1)
	}

	// Afficher les résultats
	fmt.Printf("Statistiques pour le code: %s\n", stats.ID)
	fmt.Printf("Type: %s\n", stats.Type)
	fmt.Printf("Total de scans: %d\n", stats.ScanCount)
	if stats.LastScanAt != nil {
		fmt.Printf("Dernier scan: %s\n", stats.LastScanAt.Format("2006-01-02 15:04:05"))
	} else {
		fmt.Println("Dernier scan: jamais")
	}
	fmt.Printf("Date de création: %s\n", stats.CreatedAt.Format("2006-01-02 15:04:05"))
}
