// Package config loads the per-run configuration of an organoid tracking job.
//
// Every input directory carries a config.json describing the detection model and
// the parameters used to interpret its images:
//
//	{
//	  "model": "/models/organoids.onnx",
//	  "image_size": 800,
//	  "contrast": 1.5,
//	  "threshold": 0.5,
//	  "regex": "(?P<WELL>[A-H][0-9]{1,2})_t(?P<T>[0-9]+)"
//	}
//
// # Required Keys
//
// The keys model, image_size, contrast, threshold and regex have no defaults. A
// missing key is reported as ErrMissingKey wrapped with the key name. The regex
// must compile and must contain the named groups WELL and T.
//
// # Optional Keys
//
// Tracking and drawing parameters that older runs hard-coded may be overridden:
//
//   - max_side: cap on the longer side after resizing (default 2048)
//   - search_range: linking radius in pixels (default 20)
//   - memory: frames a particle may be missing and keep its identity (default 2)
//   - min_presence: fraction of max(t) a track must be seen in (default 0.5)
//   - box_color: hex colour of drawn boxes (default "#FF00FF")
//   - mean_pixel: BGR mean subtracted before inference
//   - input_glob: file name pattern of input images (default "*.jpg")
//   - exclude: path substrings that disqualify an input (default ["_detected"])
//
// Fields are pointers so that absence can be told apart from a zero value; use
// the Get methods once Validate has succeeded.
package config
