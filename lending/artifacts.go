package lending

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/gocarina/gocsv"
	"github.com/pkg/errors"

	"github.com/baldhumanity/neat-lending/neat"
)

// Artifact file prefixes.
const (
	PrefixLog        = "output"
	PrefixGenome     = "maxFitnessGenome"
	PrefixWinners    = "winners"
	PrefixLosers     = "losers"
	PrefixSample     = "sample"
	PrefixSelections = "selections"
	PrefixParameters = "parameters"
)

// Timestamp renders t as Unix seconds with microsecond resolution.
func Timestamp(t time.Time) string {
	return fmt.Sprintf("%d.%06d", t.Unix(), t.Nanosecond()/int(time.Microsecond))
}

// OutputFilename builds <dir>/<prefix>.<timestamp>.<ext>.
func OutputFilename(dir, prefix, timestamp, ext string) string {
	return filepath.Join(dir, prefix+"."+timestamp+"."+ext)
}

// ArtifactDir writes run artifacts into Dir, all stamped with Timestamp.
type ArtifactDir struct {
	Dir       string
	Timestamp string
	// Params, when set, are written next to the other artifacts.
	Params *neat.Parameters
}

// Path returns the artifact path for prefix and ext.
func (a ArtifactDir) Path(prefix, ext string) string {
	return OutputFilename(a.Dir, prefix, a.Timestamp, ext)
}

// Persist writes the champion genome, its training selections and the
// training sample.
func (a ArtifactDir) Persist(champion Champion, sample []Instance) error {
	if champion.Genome == nil {
		return errors.Wrap(ErrConfig, "no champion to persist")
	}
	if err := champion.Genome.Save(a.Path(PrefixGenome, "ge")); err != nil {
		return errors.Wrapf(ErrIO, "save champion genome: %v", err)
	}
	if err := a.writeJSON(PrefixWinners, champion.Winners); err != nil {
		return err
	}
	if err := a.writeJSON(PrefixLosers, champion.Losers); err != nil {
		return err
	}
	if err := a.writeJSON(PrefixSample, sample); err != nil {
		return err
	}
	if err := a.writeSelections(champion); err != nil {
		return err
	}
	if a.Params != nil {
		if err := a.Params.SaveTo(a.Path(PrefixParameters, "ini")); err != nil {
			return errors.Wrapf(ErrIO, "save parameters: %v", err)
		}
	}
	return nil
}

func (a ArtifactDir) writeJSON(prefix string, instances []Instance) error {
	if instances == nil {
		instances = []Instance{}
	}
	data, err := json.MarshalIndent(instances, "", "    ")
	if err != nil {
		return errors.Wrapf(err, "encode %s", prefix)
	}
	path := a.Path(prefix, "json")
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return errors.Wrapf(ErrIO, "write %s: %v", path, err)
	}
	return nil
}

// ReadInstances loads a JSON artifact written by ArtifactDir.
func ReadInstances(path string) ([]Instance, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, errors.Wrapf(ErrIO, "read %s: %v", path, err)
	}
	var instances []Instance
	if err := json.Unmarshal(data, &instances); err != nil {
		return nil, errors.Wrapf(err, "decode %s", path)
	}
	return instances, nil
}

// Selection is one row of the selections CSV.
type Selection struct {
	Outcome    string  `csv:"outcome"`
	LoanStatus string  `csv:"loan_status"`
	IntRate    float64 `csv:"int_rate"`
	Inquiries  int     `csv:"inq_last_6mths"`
}

// Selections flattens the champion's picks, winners first.
func Selections(champion Champion) []*Selection {
	rows := make([]*Selection, 0, len(champion.Winners)+len(champion.Losers))
	add := func(outcome string, instances []Instance) {
		for _, inst := range instances {
			inq, _ := inst.Attributes[ColumnInquiries].(int)
			rows = append(rows, &Selection{
				Outcome:    outcome,
				LoanStatus: string(inst.Status()),
				IntRate:    inst.IntRate(),
				Inquiries:  inq,
			})
		}
	}
	add("winner", champion.Winners)
	add("loser", champion.Losers)
	return rows
}

func (a ArtifactDir) writeSelections(champion Champion) error {
	path := a.Path(PrefixSelections, "csv")
	f, err := os.Create(path)
	if err != nil {
		return errors.Wrapf(ErrIO, "create %s: %v", path, err)
	}
	defer f.Close()

	rows := Selections(champion)
	if err := gocsv.MarshalFile(&rows, f); err != nil {
		return errors.Wrapf(ErrIO, "write %s: %v", path, err)
	}
	return errors.Wrapf(f.Close(), "close %s", path)
}
