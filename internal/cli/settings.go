package cli

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	upload "github.com/goliatone/go-upload"
	"github.com/spf13/viper"
)

// Mode is what the command does with its arguments.
type Mode string

const (
	ModeIndividual Mode = "individual"
	ModeArchive    Mode = "archive"
	ModeList       Mode = "list"
)

// Settings is the resolved configuration of one run.
type Settings struct {
	Mode             Mode
	Files            []string
	DirectoryArchive bool
	ArchiveName      string

	Backends     []string
	Exclude      []string
	Requirements upload.Requirements

	ContinueOnError bool
	ProbePolicy     upload.ProbePolicy
	ProbeTimeout    time.Duration
	UploadTimeout   time.Duration

	LocalDir     string
	S3Bucket     string
	S3Region     string
	S3Prefix     string
	SourceBucket string

	Verbosity int
}

// LoadSettings resolves flags, environment and config file values held by
// v. interactive tells whether stdin is a terminal; without files and
// without a terminal paths are read from stdin.
func LoadSettings(v *viper.Viper, args []string, interactive bool) (*Settings, error) {
	s := &Settings{
		Backends:        v.GetStringSlice("backend"),
		Exclude:         v.GetStringSlice("exclude"),
		ContinueOnError: v.GetBool("continue"),
		ProbePolicy:     upload.ProbeEager,
		ProbeTimeout:    v.GetDuration("probe-timeout"),
		UploadTimeout:   v.GetDuration("upload-timeout"),
		LocalDir:        v.GetString("local-dir"),
		S3Bucket:        v.GetString("s3-bucket"),
		S3Region:        v.GetString("s3-region"),
		S3Prefix:        v.GetString("s3-prefix"),
		SourceBucket:    v.GetString("from-bucket"),
		Verbosity:       v.GetInt("verbose"),
	}

	if v.GetBool("check-when-needed") {
		s.ProbePolicy = upload.ProbeDeferred
	}

	mode, err := parseMode(v, len(args))
	if err != nil {
		return nil, err
	}
	s.Mode = mode

	if s.Files, err = parseFiles(args, mode, interactive); err != nil {
		return nil, err
	}

	if s.DirectoryArchive, err = parseDirectoryArchive(v, mode); err != nil {
		return nil, err
	}

	if v.IsSet("name") {
		s.ArchiveName = strings.TrimSpace(v.GetString("name"))
		if s.ArchiveName == "" {
			return nil, fmt.Errorf("%w: the archive name cannot be empty", ErrUsage)
		}
	}

	if s.Requirements, err = parseRequirements(v); err != nil {
		return nil, err
	}

	return s, nil
}

func parseMode(v *viper.Viper, files int) (Mode, error) {
	if v.GetBool("archive") && v.GetBool("individual") {
		return "", fmt.Errorf("%w: archive mode and individual mode cannot be combined", ErrUsage)
	}

	switch {
	case v.GetBool("list"):
		return ModeList, nil
	case v.GetBool("archive"):
		return ModeArchive, nil
	case v.GetBool("individual"):
		return ModeIndividual, nil
	case files <= 1:
		return ModeIndividual, nil
	default:
		return ModeArchive, nil
	}
}

func parseFiles(args []string, mode Mode, interactive bool) ([]string, error) {
	if mode == ModeList {
		return nil, nil
	}

	if len(args) > 0 {
		return args, nil
	}

	if interactive {
		return nil, fmt.Errorf("%w: no files given, use it like 'upload file.txt file2.txt'", ErrUsage)
	}

	return []string{upload.StdinPath}, nil
}

// parseDirectoryArchive defaults to directory archives in archive mode and
// to root archives in individual mode.
func parseDirectoryArchive(v *viper.Viper, mode Mode) (bool, error) {
	root := v.GetBool("root-archive")
	dir := v.GetBool("directory-archive")

	if root && dir {
		return false, fmt.Errorf("%w: root-archive and directory-archive cannot be combined", ErrUsage)
	}

	switch {
	case root:
		return false, nil
	case dir:
		return true, nil
	default:
		return mode == ModeArchive, nil
	}
}

func parseRequirements(v *viper.Viper) (upload.Requirements, error) {
	var opts []upload.RequirementOption

	if v.GetBool("ssl") && v.GetBool("no-ssl") {
		return upload.Requirements{}, fmt.Errorf("%w: ssl and no-ssl cannot be combined", ErrUsage)
	}

	if v.GetBool("ssl") {
		opts = append(opts, upload.RequireHTTPS())
	}

	if v.GetBool("no-ssl") {
		opts = append(opts, upload.RequireHTTP())
	}

	if v.GetBool("preserve-name") {
		opts = append(opts, upload.RequirePreserveName())
	}

	if v.IsSet("min-size") {
		opts = append(opts, upload.RequireMinSize(v.GetInt64("min-size")))
	}

	for _, key := range []string{"min-retention", "max-retention"} {
		if !v.IsSet(key) {
			continue
		}

		d, err := ParseRetention(v.GetString(key))
		if err != nil {
			return upload.Requirements{}, fmt.Errorf("%w: %s: %v", ErrUsage, key, err)
		}

		if key == "min-retention" {
			opts = append(opts, upload.RequireMinRetention(d))
		} else {
			opts = append(opts, upload.RequireMaxRetention(d))
		}
	}

	if v.IsSet("max-downloads") {
		opts = append(opts, upload.RequireMaxDownloads(v.GetInt64("max-downloads")))
	}

	if v.IsSet("min-random-part") {
		opts = append(opts, upload.RequireMinRandomPart(v.GetInt("min-random-part")))
	}

	if v.IsSet("max-random-part") {
		opts = append(opts, upload.RequireMaxRandomPart(v.GetInt("max-random-part")))
	}

	if v.IsSet("max-url-length") {
		opts = append(opts, upload.RequireMaxURLLength(v.GetInt("max-url-length")))
	}

	return upload.NewRequirements(opts...)
}

// ParseRetention accepts Go durations plus a day ("14d") or week ("2w")
// suffix.
func ParseRetention(value string) (time.Duration, error) {
	value = strings.TrimSpace(value)

	unit := time.Duration(0)
	switch {
	case strings.HasSuffix(value, "d"):
		unit = 24 * time.Hour
	case strings.HasSuffix(value, "w"):
		unit = 7 * 24 * time.Hour
	}

	if unit == 0 {
		return time.ParseDuration(value)
	}

	n, err := strconv.ParseFloat(strings.TrimSpace(value[:len(value)-1]), 64)
	if err != nil {
		return 0, fmt.Errorf("invalid retention %q", value)
	}

	return time.Duration(n * float64(unit)), nil
}
