package workflow

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/janelia-flyem/stitch/stitch"

	"github.com/santhosh-tekuri/jsonschema/v5"
)

// jobSchema constrains segmentation job specifications before any work
// is scheduled, so malformed jobs fail fast instead of mid-run.
const jobSchema = `
{
	"$schema": "http://json-schema.org/draft-07/schema#",
	"title": "Segmentation stitching job",
	"type": "object",
	"properties": {
		"bounding-box": {
			"description": "Global half-open bounding box of the job in voxels",
			"type": "object",
			"properties": {
				"start": {
					"type": "array",
					"items": { "type": "integer" },
					"minItems": 3,
					"maxItems": 3
				},
				"stop": {
					"type": "array",
					"items": { "type": "integer" },
					"minItems": 3,
					"maxItems": 3
				}
			},
			"required": ["start", "stop"]
		},
		"chunk-size": {
			"description": "Edge length of the cubical subvolumes the box is partitioned into",
			"type": "integer",
			"minimum": 1
		},
		"border": {
			"description": "Overlap halo in voxels added around each subvolume",
			"type": "integer",
			"minimum": 0
		}
	},
	"required": ["bounding-box", "chunk-size", "border"]
}`

var compiledJobSchema = jsonschema.MustCompileString("job-schema.json", jobSchema)

// Job is a validated segmentation stitching job specification.
type Job struct {
	BoundingBox struct {
		Start [3]int32 `json:"start"`
		Stop  [3]int32 `json:"stop"`
	} `json:"bounding-box"`
	ChunkSize int32 `json:"chunk-size"`
	Border    int32 `json:"border"`
}

// Box returns the job's global bounding box.
func (job *Job) Box() stitch.Box3d {
	return stitch.Box3d{
		X1: job.BoundingBox.Start[0], X2: job.BoundingBox.Stop[0],
		Y1: job.BoundingBox.Start[1], Y2: job.BoundingBox.Stop[1],
		Z1: job.BoundingBox.Start[2], Z2: job.BoundingBox.Stop[2],
	}
}

// ParseJob validates raw JSON against the job schema and decodes it.
func ParseJob(data []byte) (*Job, error) {
	var decoded interface{}
	if err := json.Unmarshal(data, &decoded); err != nil {
		return nil, fmt.Errorf("job spec is not valid JSON: %v", err)
	}
	if err := compiledJobSchema.Validate(decoded); err != nil {
		return nil, fmt.Errorf("job spec failed validation: %v", err)
	}
	var job Job
	if err := json.Unmarshal(data, &job); err != nil {
		return nil, err
	}
	if job.Box().Empty() {
		return nil, fmt.Errorf("job bounding box %s is empty", job.Box())
	}
	return &job, nil
}

// LoadJob reads and validates a job specification file.
func LoadJob(filename string) (*Job, error) {
	data, err := os.ReadFile(filename)
	if err != nil {
		return nil, fmt.Errorf("could not read job file %q: %v", filename, err)
	}
	return ParseJob(data)
}
