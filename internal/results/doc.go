// Package results turns retained detections into table rows and persists them.
//
// An Aggregator converts the boxes of one image into Records, deriving the
// well and time index from the image file name. Records accumulate in a Table
// until every image has been processed. After tracking, WriteCSV writes the
// final table to results.csv with a fixed column order; ReadCSV reads it back.
//
// # Columns
//
//	x1,y1,x2,y2                 box corners in original-image pixels (truncated)
//	score                       detector confidence
//	diameter_1_in_pixels        x2 - x1
//	diameter_2_in_pixels        y2 - y1
//	surface                     ellipse area, pi * d1/2 * d2/2
//	image                       file base name
//	well, t                     parsed from the file name
//	processing_timestamp        unix seconds when the image was aggregated
//	x, y                        box centre (set by tracking)
//	particle                    track identity within the well (set by tracking)
package results
