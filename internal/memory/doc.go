// Package memory keeps the server inside a container memory limit.
//
// [ConfigureFromEnv] derives GOMEMLIMIT from MEMORY_LIMIT, normally set
// through the Kubernetes Downward API:
//
//	env:
//	- name: MEMORY_LIMIT
//	  valueFrom:
//	    resourceFieldRef:
//	      resource: limits.memory
//	- name: MEMORY_RATIO
//	  value: "0.75"
//
// Transcodes run in ffmpeg child processes that GOMEMLIMIT does not cover,
// so the default ratio leaves a quarter of the container for them.
//
// [Monitor] samples heap usage against the limit. Preview rendering decodes
// whole images in process and is refused while the monitor is paused.
package memory
