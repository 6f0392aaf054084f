package main

import "testing"

func Test_compiler(t *testing.T) {
	vmTestCases{
		vmTest("square").
			withInput(": SQUARE DUP * ;\n6 SQUARE\n").
			expectWord("SQUARE", ": SQUARE DUP * ;").
			expectStack(36),

		vmTest("definition spans lines").
			withInput(": SQ\nDUP * ;\n3 SQ .\n").
			expectOutput(" compiled\n ok\n9  ok\n"),

		vmTest("if then").
			withInput(": ABS DUP 0< IF NEGATE THEN ;\n-5 ABS 5 ABS\n").
			expectWord("ABS", ": ABS DUP 0< 0= ?SKIP BRANCH+2 NEGATE ;").
			expectStack(5, 5),

		vmTest("if then with literal compare").
			withInput(": ABS DUP 0 < IF NEGATE THEN ;\n-5 ABS 5 ABS\n").
			expectWord("ABS", ": ABS DUP 0 < 0= ?SKIP BRANCH+2 NEGATE ;").
			expectStack(5, 5),

		vmTest("if else then").
			withInput(": SIGN 0< IF -1 ELSE 1 THEN ;\n-3 SIGN 3 SIGN\n").
			expectWord("SIGN", ": SIGN 0< 0= ?SKIP BRANCH+3 -1 BRANCH+2 1 ;").
			expectStack(-1, 1),

		vmTest("begin until").
			withInput(": COUNTDOWN BEGIN DUP . 1- DUP 0= UNTIL DROP ;\n3 COUNTDOWN\n").
			expectOutput("3 2 1  ok\n").
			expectStack(),

		vmTest("begin while repeat").
			withInput(": SUM 0 SWAP BEGIN DUP WHILE TUCK + SWAP 1- REPEAT DROP ;\n4 SUM\n").
			expectStack(10),

		vmTest("early exit").
			withInput(": CLAMP DUP 9 > IF DROP 9 EXIT THEN ;\n12 CLAMP 4 CLAMP\n").
			expectWord("CLAMP", ": CLAMP DUP 9 > 0= ?SKIP BRANCH+4 DROP 9 EXIT ;").
			expectStack(9, 4),

		vmTest("recurse").
			withInput(": FACT DUP 1 > IF DUP 1- RECURSE * THEN ;\n5 FACT\n").
			expectStack(120),

		vmTest("string literal").
			withInput(`: HI ." hello" ;` + "\nHI HI\n").
			expectWord("HI", `: HI ." hello" ;`).
			expectOutput(" ok\nhellohello ok\n"),

		vmTest("create does").
			withInput(": CONST CREATE , DOES> @ ;\n5 CONST FIVE FIVE\n").
			expectStack(5),

		vmTest("does shares code").
			withInput(": COUNTER CREATE 0 , DOES> 1 OVER +! @ ;\nCOUNTER A COUNTER B A A B A\n").
			expectStack(1, 2, 1, 3),

		// the behavior link lives in the entry, so instance data starts at
		// the first cell the defining word (or its caller) lays down
		vmTest("does leaves data to the caller").
			withInput(": MK CREATE DOES> ;\nMK A 7 , A @\n").
			expectStack(7),

		vmTest("immediate").
			withInput(": LIT42 42 [COMPILE] LITERAL ; IMMEDIATE\n: ANSWER LIT42 ;\nANSWER\n").
			expectWord("LIT42", ": LIT42 42 LITERAL ; IMMEDIATE").
			expectWord("ANSWER", ": ANSWER 42 ;").
			expectStack(42),

		vmTest("compile comma").
			withInput("' DUP CONSTANT 'DUP\n: DUPPER 'DUP COMPILE, ; IMMEDIATE\n: DOUBLE-UP DUPPER ;\n3 DOUBLE-UP\n").
			expectWord("DOUBLE-UP", ": DOUBLE-UP DUP ;").
			expectStack(3, 3),

		vmTest("redefinition shadows").
			withInput(": FOO 1 ;\n: BAR FOO ;\n: FOO 2 ;\nBAR FOO\n").
			expectWord("BAR", ": BAR FOO ;").
			expectStack(1, 2),

		vmTest("long names truncate").
			withInput(": ABCDEFGHIJKLMNOPQRST 7 ;\nabcdefghijklmnopXYZ\n").
			expectStack(7),

		vmTest("parse failure keeps partial entry").
			withInput(": BAD 1 FROB ;\nSEE BAD\n").
			expectOutput(" FROB ?\n: BAD 1 ...\n ok\n").
			expectStack(),

		vmTest("nested definition").
			withInput(": A : B ;\n1\n").
			expectOutput(" nested definition\n ok\n").
			expectStack(1),

		vmTest("missing name").
			withInput(":\n").
			expectOutput(" missing name\n"),

		vmTest("unbalanced").
			withInput(": A IF ;\n").
			expectOutput(" control structure mismatch\n"),

		vmTest("then without if").
			withInput(": A BEGIN 1 THEN ;\n").
			expectOutput(" control structure mismatch\n"),

		vmTest("compile only").
			withInput("1 IF\n2 LITERAL\n").
			expectOutput(" compile only\n compile only\n"),

		vmTest("see").
			withInput(": SQUARE DUP * ;\nSEE SQUARE SEE CONSTANT SEE DUP\n").
			expectOutput(lines(
				" ok",
				": SQUARE DUP * ;",
				": CONSTANT CREATE , DOES> @ ;",
				"DUP ( native 0 )",
				" ok",
			)),
	}.run(t)
}
