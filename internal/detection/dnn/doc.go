// Package dnn runs an exported RetinaNet organoid model through OpenCV's DNN
// module using gocv.
//
// # Prerequisites
//
// OpenCV 4.x with the dnn module must be installed and the binary built with
// CGO enabled and the opencv build tag:
//
//	go build -tags opencv ./cmd/organoid-tracker
//
// Without the tag, Open still checks that the model file exists and then
// returns ErrUnavailable. The command treats that as fatal unless --blob asks
// for detection.BlobDetector instead.
//
// # Model Format
//
// The model file is anything cv::dnn::readNet accepts (ONNX, TensorFlow .pb,
// Caffe). It must be an inference graph with three outputs:
//   - boxes:  1 x N x 4 (x1, y1, x2, y2) in input pixel coordinates
//   - scores: 1 x N, sorted descending, padded with -1
//   - labels: 1 x N, padded with -1
//
// Output layer names default to DefaultOutputNames and can be overridden via
// Options.OutputNames.
//
// # GPU
//
// Options.GPU selects the CUDA backend and target. OpenCV silently falls back
// to the CPU when it was built without CUDA support.
package dnn
