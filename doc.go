/*
go-moteval evaluates multi object tracking output against ground truth.

Ground truth and predictions are read in the exchange format, a JSON object
keyed by image identifier holding a list of objects with a target_id and an
ltrb bounding box.  Evaluation happens in two stages.  First the predicted
identities of every frame are reconciled to ground truth identities using an
optimal assignment over box overlap.  Then the reconciled predictions are
matched frame by frame to count true positives, false positives and misses
from which MOTA and IDF1 are derived.

Box overlap follows the inclusive pixel grid convention, a box from 0 to 10
is 11 pixels wide.

See the evaluate program in the example subdirectory for command line usage.
*/
package moteval
