// Package generator runs external derivations over a set of cached jars.
//
// A Runner takes one permit from an injected counting pool, creates a private
// scratch directory, hands the job to a Strategy, and parses the job's output
// file out of the scratch directory. The scratch directory is removed and the
// permit returned on every exit path, including strategy panics.
//
// SubprocessStrategy is the production strategy: it launches the JVM with a
// classpath assembled from the jars and the parent's standard streams.
package generator
