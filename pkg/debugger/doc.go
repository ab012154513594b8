// Package debugger holds the inspection logic behind the Moonlight debugger
// extension: pretty-printers for the native object model and the mforeach
// list-walking command.
//
// Nothing here talks to a debugger directly. A host bridge supplies the
// inspected process through three small interfaces: Memory (raw reads),
// TypeTable (the runtime type hierarchy) and Session (expression evaluation
// and command execution). Printers and commands are installed into an
// explicit Registry. Nothing is registered at package load.
package debugger
