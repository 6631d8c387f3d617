/*
go-lpkit provides the tooling used around license plate keypoint models that
detect the four vertices of a license plate and, for the front/rear variants,
the vertices of the vehicle front or rear together with its class.

It covers two workflows.  At training time the augment package reads
annotated images and applies a randomized sequence of geometric and color
transforms to the images and their keypoints together.  At evaluation time
the benchmark package runs every weights file of a folder over a validation
set using the multi-scale predictor, writes per image detections and
visualizations, and reports COCO style mAP, front/rear classification
accuracy and front/rear IoU.

See the binaries under cmd/ for usage.
*/
package lpkit
