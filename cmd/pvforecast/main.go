package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"path/filepath"

	"github.com/chrissnell/pvforecast/internal/app"
	"github.com/chrissnell/pvforecast/internal/constants"
	"github.com/chrissnell/pvforecast/internal/forecast"
	"github.com/chrissnell/pvforecast/internal/log"
	"github.com/chrissnell/pvforecast/pkg/config"
)

func main() {
	cfgFile := flag.String("config", "config.yaml", "Path to the YAML configuration file")
	debug := flag.Bool("debug", false, "Turn on debugging output")
	showVersion := flag.Bool("version", false, "Show version and exit")
	serve := flag.Bool("serve", false, "Serve forecasts over HTTP instead of running once")
	offline := flag.Bool("offline", false, "Use the clear-sky weather source instead of Open-Meteo")
	importSAM := flag.Bool("import", false, "Import the configured SAM library files into the equipment SQLite database and exit")
	model := flag.String("model", "", "Forecast model (GFS, NAM, NDFD, RAP, HRRR); overrides site.model")
	days := flag.Int("days", 0, "Days ahead to forecast; overrides site.days-ahead")
	flag.Parse()

	if *showVersion {
		fmt.Printf("pvforecast %s\n", constants.Version)
		os.Exit(0)
	}

	// Set up logging
	if err := log.Init(*debug); err != nil {
		fmt.Printf("Failed to initialize logger: %v\n", err)
		os.Exit(1)
	}
	defer log.Sync()

	// Load configuration
	cfgData, err := loadConfig(*cfgFile)
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}

	ctx := context.Background()
	application := app.New(cfgData, *offline, log.GetSugaredLogger())
	if err := application.Init(ctx); err != nil {
		log.Fatalf("Failed to initialize: %v", err)
	}
	defer application.Close()

	switch {
	case *importSAM:
		modules, inverters, err := application.Equipment.Import()
		if err != nil {
			log.Fatalf("Import failed: %v", err)
		}
		log.Infof("imported %d modules and %d inverters into %s", modules, inverters, cfgData.Equipment.SQLitePath)

	case *serve:
		if err := application.Serve(ctx); err != nil {
			log.Fatalf("Application error: %v", err)
		}

	default:
		in := forecast.InputsFromSite(cfgData.Site)
		if *model != "" {
			in.ForecastModel = *model
		}
		if *days != 0 {
			in.DaysAhead = *days
		}

		res, err := application.Forecast(ctx, in)
		if err != nil {
			log.Errorf("Forecast failed: %v", err)
			if res == nil {
				os.Exit(1)
			}
		}
		printSummary(res)
	}
}

func loadConfig(cfgFile string) (*config.ConfigData, error) {
	filename, _ := filepath.Abs(cfgFile)
	provider := config.NewYAMLProvider(filename)

	cfgData, err := provider.LoadConfig()
	if err != nil {
		return nil, fmt.Errorf("error reading config file. Did you pass the -config flag? Run with -h for help: %w", err)
	}

	return cfgData, nil
}

func printSummary(res *forecast.Result) {
	s := res.Summary
	fmt.Printf("%s via %s, %s to %s\n", res.Request.Model, res.Source,
		res.Window.Start.Format("2006-01-02 15:04 MST"), res.Window.End.Format("2006-01-02 15:04 MST"))
	for _, d := range s.Days {
		if d.Polar {
			fmt.Printf("  %s  %8.1f Wh  (no sunrise/sunset)\n", d.Date, d.ACEnergy)
			continue
		}
		fmt.Printf("  %s  %8.1f Wh  sunrise %s sunset %s\n", d.Date, d.ACEnergy, d.Sunrise.Format("15:04"), d.Sunset.Format("15:04"))
	}
	fmt.Printf("total AC %.1f Wh (DC %.1f Wh, inverter %.1f%%), %.2f Wh/Wp, peak %.1f W at %s, %d clipped steps\n",
		s.ACEnergy, s.DCEnergy, 100*s.InverterEfficiency, s.SpecificYield, s.PeakAC, s.PeakACTime.Format("2006-01-02 15:04"), s.ClippedSteps)
}
