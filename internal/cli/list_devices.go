package cli

import (
	"context"
	"flag"
	"fmt"
	"io"
	"os"
	"text/tabwriter"

	"gorm.io/gorm/logger"

	"github.com/mrlokans/devicecatalog/internal/config"
	"github.com/mrlokans/devicecatalog/internal/database"
	"github.com/mrlokans/devicecatalog/internal/database/devices"
)

// ListDevicesCommand prints every stored device.
type ListDevicesCommand struct {
	DatabasePath string
	Out          io.Writer
}

func NewListDevicesCommand() *ListDevicesCommand {
	return &ListDevicesCommand{Out: os.Stdout}
}

func (cmd *ListDevicesCommand) ParseFlags(args []string) error {
	fs := flag.NewFlagSet("list-devices", flag.ExitOnError)

	fs.StringVar(&cmd.DatabasePath, "db", config.DefaultDatabasePath, "Path to the catalog database")

	fs.Usage = func() {
		fmt.Fprintf(os.Stderr, "Usage: %s list-devices [options]\n\n", os.Args[0])
		fmt.Fprintf(os.Stderr, "List every device in the catalog.\n\n")
		fmt.Fprintf(os.Stderr, "Options:\n")
		fs.PrintDefaults()
	}

	return fs.Parse(args)
}

func (cmd *ListDevicesCommand) Run() error {
	db, err := database.NewDatabaseWithLogLevel(cmd.DatabasePath, logger.Silent)
	if err != nil {
		return err
	}
	defer db.Close()

	all, err := devices.NewRepository(db.DB).GetAll(context.Background())
	if err != nil {
		return fmt.Errorf("failed to list devices: %w", err)
	}

	if len(all) == 0 {
		fmt.Fprintln(cmd.Out, "No devices found.")
		return nil
	}

	w := tabwriter.NewWriter(cmd.Out, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "ID\tKIND\tNAME\tENABLED")
	for _, d := range all {
		fmt.Fprintf(w, "%s\t%s\t%s\t%t\n", d.ID, d.Kind.DisplayName(), d.Name, d.Enabled)
	}
	if err := w.Flush(); err != nil {
		return err
	}

	fmt.Fprintf(cmd.Out, "\n%d device(s)\n", len(all))
	return nil
}
