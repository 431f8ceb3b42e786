// Package cli implements the testbed command line.
//
// Commands operate on a scenario file (testbed.yaml by default, -f to
// choose another):
//
//	testbed resolve              print bindings without starting anything
//	testbed up [--follow]        create and start the containers
//	testbed logs NAME [--until]  follow one container's output
//	testbed ps                   list the scenario's containers
//	testbed down [-y]            remove every container of the scenario
//
// Status output goes to stderr through internal/ui; results and container
// output go to stdout.
package cli
