/*
Package domain contains the core domain models of the atelier studio.

It defines the edit timeline of a document, the opaque action descriptors
recorded into it, and the progress model of long-running jobs. This package is
kept pure and free of external I/O or persistence, following Hexagonal
Architecture principles.

# Key Entities

  - Action: An immutable descriptor of one edit (smooth, subdivide, boolean, ...).
  - History: The linear timeline of a document (past and undone actions).
  - Document: The editable unit of a session (project settings plus History).
  - Progress: A snapshot of a generation or export job.
*/
package domain
