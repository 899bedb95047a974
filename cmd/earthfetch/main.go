package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/jgivc/earthfetch/internal/app"
	"github.com/jgivc/earthfetch/internal/entity"
)

const dateLayout = "2006-01-02"

func main() {
	cfgFileName := flag.String("c", "config.yml", "Path to config file")
	source := flag.String("s", "", "Source name to fetch")
	at := flag.String("at", "", "Single timestamp (2006-01-02 or RFC3339)")
	from := flag.String("from", "", "Range start (2006-01-02 or RFC3339)")
	to := flag.String("to", "", "Range end, inclusive (2006-01-02 or RFC3339)")
	flag.Parse()

	if *source == "" {
		fmt.Fprintln(os.Stderr, "a source name is required (-s)")
		flag.Usage()
		os.Exit(2)
	}

	times, err := buildRequest(*at, *from, *to)
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(2)
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	c := make(chan os.Signal, 1)
	signal.Notify(c, os.Interrupt, syscall.SIGTERM)
	go func() {
		<-c
		fmt.Fprintln(os.Stderr, "Received termination signal. Shutting down...")
		cancel()
	}()

	paths, err := app.New(*cfgFileName).Run(ctx, *source, times)
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}

	for _, p := range paths {
		fmt.Println(p)
	}
}

func buildRequest(at, from, to string) (entity.TimeRequest, error) {
	switch {
	case at != "":
		t, err := parseTime(at)
		if err != nil {
			return entity.TimeRequest{}, err
		}

		return entity.At(t), nil
	case from != "" && to != "":
		t0, err := parseTime(from)
		if err != nil {
			return entity.TimeRequest{}, err
		}
		t1, err := parseTime(to)
		if err != nil {
			return entity.TimeRequest{}, err
		}

		return entity.Range(t0, t1)
	default:
		return entity.TimeRequest{}, fmt.Errorf("either -at or both -from and -to are required")
	}
}

func parseTime(str string) (time.Time, error) {
	if t, err := time.Parse(dateLayout, str); err == nil {
		return t, nil
	}

	t, err := time.Parse(time.RFC3339, str)
	if err != nil {
		return time.Time{}, fmt.Errorf("cannot parse time %q: use %s or RFC3339", str, dateLayout)
	}

	return t, nil
}
