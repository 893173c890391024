package cmd

import (
	"context"
	"flag"
	"fmt"
	"os"
	"time"

	"github.com/tonhe/sol/internal/client"
)

func predictCmd(args []string) {
	fs := flag.NewFlagSet("predict", flag.ExitOnError)
	baseURL := fs.String("base-url", "", "Backend base URL")
	ambient := fs.Float64("ambient", 0, "Ambient temperature in °C")
	module := fs.Float64("module", 0, "Module temperature in °C")
	irradiation := fs.Float64("irradiation", 0, "Irradiation in kW/m²")
	at := fs.String("at", "", "Timestamp the reading is for, RFC 3339 (default now)")
	timeout := fs.Duration("timeout", 30*time.Second, "Request timeout")

	fs.Usage = func() {
		fmt.Fprintln(os.Stderr, "Usage: sol predict --ambient C --module C --irradiation KW [--at TIME] [--base-url URL]")
		fs.PrintDefaults()
	}
	if err := fs.Parse(args); err != nil {
		os.Exit(1)
	}

	set := map[string]bool{}
	fs.Visit(func(f *flag.Flag) { set[f.Name] = true })
	for _, name := range []string{"ambient", "module", "irradiation"} {
		if !set[name] {
			fmt.Fprintf(os.Stderr, "Error: --%s is required\n", name)
			fs.Usage()
			os.Exit(1)
		}
	}

	when := time.Now()
	if *at != "" {
		t, err := time.Parse(time.RFC3339, *at)
		if err != nil {
			fatal("--at: %v", err)
		}
		when = t
	}

	cfg, _, err := LoadConfig(Overrides{BaseURL: *baseURL})
	if err != nil {
		fatal("%v", err)
	}
	c, err := NewClient(cfg)
	if err != nil {
		fatal("%v", err)
	}

	reading := client.NewSensorReading(*ambient, *module, *irradiation, when)
	ctx, cancel := context.WithTimeout(context.Background(), *timeout)
	defer cancel()

	kw, err := c.Predict(ctx, reading)
	if err != nil {
		fatal("prediction failed (%s): %v", client.Kind(err), err)
	}

	fmt.Printf("Ambient:      %.2f °C\n", reading.AmbientTemperature)
	fmt.Printf("Module:       %.2f °C\n", reading.ModuleTemperature)
	fmt.Printf("Irradiation:  %.3f kW/m²\n", reading.Irradiation)
	fmt.Printf("Hour/Day/Mon: %d / %d / %d\n", reading.Hour, reading.DayOfWeek, reading.Month)
	fmt.Printf("Prediction:   %.2f kW\n", kw)
}
