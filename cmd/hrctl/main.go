// hrctl queries the attendance gRPC service.
//
//	hrctl [-addr host:port] [-token secret] summary [-view day|week|month] [-date YYYY-MM-DD] [-q name]
//	hrctl [-addr host:port] [-token secret] incomplete [-before YYYY-MM-DD]
package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"os"
	"time"

	"github.com/joho/godotenv"
	"google.golang.org/protobuf/encoding/protojson"
	"google.golang.org/protobuf/proto"
	"google.golang.org/protobuf/types/known/structpb"
	"google.golang.org/protobuf/types/known/wrapperspb"

	"hrdesk/internal/clients"
)

func main() {
	_ = godotenv.Load()

	addr := flag.String("addr", envOr("GRPC_ADDR", "127.0.0.1:9095"), "attendance gRPC address")
	token := flag.String("token", os.Getenv("SERVICE_AUTH_TOKEN"), "service auth token")
	timeout := flag.Duration("timeout", 5*time.Second, "dial and call timeout")
	flag.Usage = usage
	flag.Parse()
	if flag.NArg() == 0 {
		usage()
		os.Exit(2)
	}

	os.Exit(run(*addr, *token, *timeout, flag.Arg(0), flag.Args()[1:]))
}

func run(addr, token string, timeout time.Duration, command string, args []string) int {
	ctx, cancel := context.WithTimeout(context.Background(), timeout)
	defer cancel()

	c, err := clients.New(ctx, addr, token, timeout)
	if err != nil {
		log.Printf("dial %s failed: %v", addr, err)
		return 1
	}
	defer c.Close()

	var resp proto.Message
	switch command {
	case "summary":
		fs := flag.NewFlagSet("summary", flag.ExitOnError)
		view := fs.String("view", "day", "day, week or month")
		date := fs.String("date", "", "reference day, defaults to today")
		query := fs.String("q", "", "employee name filter")
		_ = fs.Parse(args)
		req, err := structpb.NewStruct(map[string]interface{}{"view": *view, "date": *date, "q": *query})
		if err != nil {
			log.Printf("build request: %v", err)
			return 1
		}
		resp, err = c.Attendance.GetPeriodSummary(ctx, req)
		if err != nil {
			log.Printf("summary failed: %v", err)
			return 1
		}
	case "incomplete":
		fs := flag.NewFlagSet("incomplete", flag.ExitOnError)
		before := fs.String("before", "", "list days before this date, defaults to today")
		_ = fs.Parse(args)
		resp, err = c.Attendance.ListIncompleteDays(ctx, wrapperspb.String(*before))
		if err != nil {
			log.Printf("incomplete failed: %v", err)
			return 1
		}
	default:
		usage()
		return 2
	}

	out, err := protojson.MarshalOptions{Multiline: true, Indent: "  "}.Marshal(resp)
	if err != nil {
		log.Printf("encode response: %v", err)
		return 1
	}
	fmt.Println(string(out))
	return 0
}

func usage() {
	fmt.Fprintf(flag.CommandLine.Output(), "usage: hrctl [flags] summary|incomplete [command flags]\n")
	flag.PrintDefaults()
}

func envOr(key, fallback string) string {
	if val := os.Getenv(key); val != "" {
		return val
	}
	return fallback
}
