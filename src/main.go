package main

import (
	"flag"
	"os"

	"github.com/sirupsen/logrus"

	"github.com/SayatAbdikul/tinyML-accelerator/src/accel"
	"github.com/SayatAbdikul/tinyML-accelerator/src/misc"
)

func main() {
	image_path := flag.String("image", "", "memory image hex file loaded before execution")
	image_base := flag.Uint("image_base", 0, "byte address the memory image is loaded at")
	program_path := flag.String("program", "", "program hex file (two 16-digit lines per instruction)")
	read_latency := flag.Int("memory_read_latency", 0, "external memory read latency in cycles")
	write_latency := flag.Int("memory_write_latency", 0, "external memory write latency in cycles")
	port_latency := flag.Int("buffer_port_latency", 0, "buffer port pipeline latency in cycles")
	step_limit := flag.Int64("step_limit", 0, "host-side step bound per instruction")
	dump_addr := flag.Uint("dump_addr", 0, "base address of the post-run memory dump")
	dump_length := flag.Int("dump_length", 0, "number of bytes to dump after the run")
	dump_path := flag.String("dump_out", "", "file the post-run memory dump is written to")
	verbose := flag.Bool("verbose", false, "log each retired instruction")
	flag.Parse()

	logger := logrus.New()
	logger.SetLevel(logrus.InfoLevel)
	if *verbose {
		logger.SetLevel(logrus.DebugLevel)
	}

	if *program_path == "" {
		logger.Fatal("a -program file is required")
	}

	misc.ConfigureRuntime(*read_latency, *write_latency, *port_latency, *step_limit)

	platform := new(accel.Platform)
	platform.Init(logger)
	defer platform.Fini()

	if *image_path != "" {
		if err := platform.Memory().LoadImage(*image_path, uint32(*image_base)); err != nil {
			logger.WithError(err).Fatal("loading memory image failed")
		}
	}

	program, err := accel.LoadProgramHex(*program_path)
	if err != nil {
		logger.WithError(err).Fatal("loading program failed")
	}

	if err := platform.Run(program); err != nil {
		// Non-completion is a liveness failure, not a recoverable condition.
		logger.WithError(err).Error("run aborted")
		platform.DumpStats()
		os.Exit(1)
	}

	platform.DumpStats()

	if *dump_path != "" && *dump_length > 0 {
		err := platform.Memory().DumpImage(*dump_path, uint32(*dump_addr), *dump_length)
		if err != nil {
			logger.WithError(err).Fatal("writing memory dump failed")
		}
	}
}
