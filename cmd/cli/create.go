package cli

import (
	"context"
	"fmt"
	"log"
	"os"

	"github.com/glebarez/sqlite"
	"github.com/spf13/cobra"
	"gorm.io/gorm"

	"github.com/gsinghjay/mvp-qr-gen-sub001/cmd"
	"github.com/gsinghjay/mvp-qr-gen-sub001/internal/config"
	"github.com/gsinghjay/mvp-qr-gen-sub001/internal/encoder"
	"github.com/gsinghjay/mvp-qr-gen-sub001/internal/generator"
	"github.com/gsinghjay/mvp-qr-gen-sub001/internal/repository"
	"github.com/gsinghjay/mvp-qr-gen-sub001/internal/services"
)

var (
	contentFlag     string
	redirectURLFlag string
	outFileFlag     string
	fillColorFlag   string
	backColorFlag   string
	sizeFlag        int
	borderFlag      int
)

// CreateCmd représente la commande 'create'
var CreateCmd = &cobra.Command{
	Use:   "create",
	Short: "Crée un code QR statique ou dynamique.",
	Long: `Cette commande génère un code QR. Avec --content le code est statique
(le contenu est encodé dans l'image); avec --redirect-url le code est dynamique
(l'image encode l'URL du résolveur et la destination reste modifiable).

Exemples:
  qrgen create --content="hello world" --out=hello.png
  qrgen create --redirect-url="https://example.com/landing" --out=campaign.png`,
	Run: func(cobraCmd *cobra.Command, args []string) {
		if (contentFlag == "") == (redirectURLFlag == "") {
			fmt.Println("Error: exactly one of --content or --redirect-url is required")
			os.Exit(1)
		}

		cfg, err := config.LoadConfig()
		if err != nil {
			log.Fatalf("Failed to load configuration: %v", err)
		}

		db, err := gorm.Open(sqlite.Open(cfg.Database.Name), &gorm.Config{})
		if err != nil {
			log.Fatalf("Failed to connect to database: %v", err)
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

		style := encoder.StyleOptions{
			FillColor: fillColorFlag,
			BackColor: backColorFlag,
			Size:      sizeFlag,
			Border:    borderFlag,
		}

		ctx := context.Background()
		if contentFlag != "" {
			code, png, err := qrService.CreateStatic(ctx, contentFlag, style)
			if err != nil {
				log.Fatalf("Failed to create static QR code: %v", err)
			}
			writeImage(png)
			fmt.Printf("Code QR statique créé avec succès:\n")
			fmt.Printf("ID: %s\n", code.ID)
			fmt.Printf("Contenu: %s\n", code.Content)
		} else {
			code, png, err := qrService.CreateDynamic(ctx, redirectURLFlag, style)
			if err != nil {
				log.Fatalf("Failed to create dynamic QR code: %v", err)
			}
			writeImage(png)
			fmt.Printf("Code QR dynamique créé avec succès:\n")
			fmt.Printf("ID: %s\n", code.ID)
			fmt.Printf("URL encodée: %s\n", qrService.ResolverURL(code.ID))
			fmt.Printf("Destination: %s\n", code.RedirectURL)
		}
	},
}

// writeImage saves the PNG bytes when --out was given.
func writeImage(png []byte) {
	if outFileFlag == "" {
		return
	}
	if err := os.WriteFile(outFileFlag, png, 0o644); err != nil {
		log.Fatalf("Failed to write image to %s: %v", outFileFlag, err)
	}
	fmt.Printf("Image écrite dans %s\n", outFileFlag)
}

func init() {
	CreateCmd.Flags().StringVar(&contentFlag, "content", "", "Payload for a static QR code")
	CreateCmd.Flags().StringVar(&redirectURLFlag, "redirect-url", "", "Initial destination for a dynamic QR code")
	CreateCmd.Flags().StringVar(&outFileFlag, "out", "", "File to write the PNG image to")
	CreateCmd.Flags().StringVar(&fillColorFlag, "fill-color", encoder.DefaultFillColor, "Module color (named or #hex)")
	CreateCmd.Flags().StringVar(&backColorFlag, "back-color", encoder.DefaultBackColor, "Background color (named or #hex)")
	CreateCmd.Flags().IntVar(&sizeFlag, "size", encoder.DefaultSize, "Image edge length in pixels")
	CreateCmd.Flags().IntVar(&borderFlag, "border", encoder.DefaultBorder, "Quiet zone (0 disables)")

	cmd.RootCmd.AddCommand(CreateCmd)
}
