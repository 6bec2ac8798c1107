package cli

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"os"

	"gorm.io/gorm/logger"

	"github.com/mrlokans/devicecatalog/internal/audit"
	"github.com/mrlokans/devicecatalog/internal/config"
	"github.com/mrlokans/devicecatalog/internal/database"
	auditRepo "github.com/mrlokans/devicecatalog/internal/database/audit"
	"github.com/mrlokans/devicecatalog/internal/entities"
	"github.com/mrlokans/devicecatalog/internal/entrypoint"
	"github.com/mrlokans/devicecatalog/internal/services"
	"github.com/mrlokans/devicecatalog/internal/validation"
)

// AddDeviceCommand creates a single device from flags.
type AddDeviceCommand struct {
	DatabasePath string
	Kind         entities.Kind
	Payload      services.DevicePayload
	Out          io.Writer
}

func NewAddDeviceCommand() *AddDeviceCommand {
	return &AddDeviceCommand{Out: os.Stdout}
}

func (cmd *AddDeviceCommand) ParseFlags(args []string) error {
	fs := flag.NewFlagSet("add-device", flag.ExitOnError)

	var kind string
	fs.StringVar(&cmd.DatabasePath, "db", config.DefaultDatabasePath, "Path to the catalog database")
	fs.StringVar(&kind, "kind", "", "Device kind: PC, SW or ED (required)")
	fs.StringVar(&cmd.Payload.Name, "name", "", "Device name (required)")
	fs.BoolVar(&cmd.Payload.Enabled, "enabled", false, "Store the device as enabled")
	fs.StringVar(&cmd.Payload.OperatingSystem, "os", "", "Operating system (PC)")
	fs.IntVar(&cmd.Payload.BatteryLevel, "battery", 100, "Battery level 0-100 (SW)")
	fs.StringVar(&cmd.Payload.IPAddress, "ip", "", "IPv4 address (ED)")
	fs.StringVar(&cmd.Payload.NetworkName, "network", "", "Network name (ED)")

	fs.Usage = func() {
		fmt.Fprintf(os.Stderr, "Usage: %s add-device -kind <PC|SW|ED> -name <name> [options]\n\n", os.Args[0])
		fmt.Fprintf(os.Stderr, "Add a device to the catalog and print its id.\n\n")
		fmt.Fprintf(os.Stderr, "Options:\n")
		fs.PrintDefaults()
		fmt.Fprintf(os.Stderr, "\nExamples:\n")
		fmt.Fprintf(os.Stderr, "  %s add-device -kind SW -name \"Apple Watch\" -battery 80\n", os.Args[0])
		fmt.Fprintf(os.Stderr, "  %s add-device -kind ED -name \"Pi 4\" -ip 192.168.1.44 -network lab\n", os.Args[0])
	}

	if err := fs.Parse(args); err != nil {
		return err
	}

	if kind == "" {
		return fmt.Errorf("required flag -kind not provided")
	}
	parsed, ok := entities.ParseKind(kind)
	if !ok {
		return fmt.Errorf("unknown device kind %q", kind)
	}
	cmd.Kind = parsed

	return nil
}

func (cmd *AddDeviceCommand) Run() error {
	db, err := database.NewDatabaseWithLogLevel(cmd.DatabasePath, logger.Silent)
	if err != nil {
		return err
	}
	defer db.Close()

	device, err := services.CreateRequest{Kind: cmd.Kind, Payload: cmd.Payload}.Device()
	if err != nil {
		return err
	}

	auditService := audit.NewService(auditRepo.NewRepository(db.DB))
	svc := entrypoint.NewDeviceService(db, config.NewConfig(), nil, auditService, nil)

	id, err := svc.Create(context.Background(), device)
	if err != nil {
		var vErr *validation.ValidationError
		if errors.As(err, &vErr) {
			return fmt.Errorf("device rejected: %s", vErr.Reason)
		}
		return fmt.Errorf("failed to add device: %w", err)
	}

	fmt.Fprintf(cmd.Out, "Created %s %s\n", cmd.Kind.DisplayName(), id)
	return nil
}
