// Package detection defines the contract between the tracking pipeline and an
// object-detection network.
//
// A Detector receives a preprocessed imaging.Tensor and returns a Prediction:
// parallel slices of boxes, confidence scores and class labels. Predictions are
// sorted by descending score, which lets callers stop reading at the first
// score below their threshold.
//
// # Coordinate System
//
// Boxes are (X1, Y1) top-left and (X2, Y2) bottom-right in the pixel space of
// the tensor they were predicted on. Prediction.Rescale maps them back to the
// original image by dividing by the preprocessing scale.
//
// # Confidence Scores
//
// Scores are in [0, 1]. Backends that emit padding entries (score -1 or label
// -1, as keras-retinanet exports do) have them removed before the Prediction
// reaches the caller.
//
// # Backends
//
// The dnn subpackage implements Detector on top of OpenCV's DNN module through
// gocv. Tests substitute a Func.
package detection
