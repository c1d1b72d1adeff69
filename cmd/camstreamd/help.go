package main

import (
	"fmt"

	"github.com/fatih/color"
	flag "github.com/spf13/pflag"
)

var (
	flagSource    string
	flagSink      string
	flagRate      int
	flagSizeLimit int
	flagHelp      bool
	flagVersion   bool
)

func init() {
	flag.StringVarP(&flagSource, "source", "i", "synthetic:30", "Frame source spec")
	flag.StringVarP(&flagSink, "sink", "s", "", "Forward records to a websocket URL")
	flag.IntVarP(&flagRate, "rate", "r", 30, "Frame rate limit, in fps")
	flag.IntVarP(&flagSizeLimit, "size-limit", "b", 0, "Frame size limit, in bytes")

	flag.BoolVarP(&flagHelp, "help", "h", false, "Print usage information and exit")
	flag.BoolVarP(&flagVersion, "version", "v", false, "Print version information and exit")
}

const helpString = `Camera event streaming pipeline

Usage: camstreamd [OPTION]...

Source:
  -i, --source=SPEC      Frame source spec, tag:path (default: synthetic:30)
                           Supported tags: mp4, synthetic

Delivery:
  -s, --sink=URL         Forward encoded records to a websocket consumer
                           instead of printing events locally

Flow control:
  -r, --rate=NUM         Frame rate limit, 1..60 fps (default: 30)
  -b, --size-limit=NUM   Frame size limit in bytes, 0 = unlimited

Miscellaneous:
  -h, --help             Prints this help message and exits
  -v, --version          Prints version information and exits`

// Help information is printed and program exits
func help() {
	c := color.New(color.FgCyan)
	c.Println("camstreamd")
	fmt.Println(helpString)
}

// Version information is printed and program exits
func version() {
	fmt.Println("camstreamd", GitRevisionId)
}
